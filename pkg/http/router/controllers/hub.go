package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/tylerkaska112/tripnav/pkg/concurrent"
	"github.com/tylerkaska112/tripnav/pkg/engine"
)

// wsPositionRequest is one inbound position frame from the host.
type wsPositionRequest struct {
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lon      float64 `json:"lon" validate:"min=-180,max=180"`
	SpeedMph float64 `json:"speed_mph" validate:"min=0"`
}

type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id          uint
	hub         *Hub
	events      <-chan engine.Event
	unsubscribe func()
}

func (u *User) readRequest() (*wsPositionRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &wsPositionRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// HandlePosition consumes one position frame and answers with the resulting
// navigation snapshot. Engine events reach the same connection through the
// event pump, not through this reply.
func (u *User) HandlePosition() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		errResp := envelope{"error": map[string]string{
			"code":    http.StatusText(http.StatusBadRequest),
			"message": fmt.Sprintf("validation error: %v", vvString),
		}}
		return u.write(errResp)
	}

	snap := u.hub.navigationService.OnPosition(req.Lat, req.Lon, req.SpeedMph)
	return u.write(envelope{"data": snap})
}

// pumpEvents forwards engine events to the connection until the subscription
// is cancelled.
func (u *User) pumpEvents() {
	for ev := range u.events {
		if err := u.write(envelope{"event": ev.EventName(), "data": ev}); err != nil {
			u.hub.Remove(u)
			return
		}
	}
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

type Hub struct {
	mu                sync.RWMutex
	seq               uint
	ns                map[uint]*User
	navigationService NavigationService

	pool *concurrent.WorkerPool
}

func NewHub(pool *concurrent.WorkerPool, navigationService NavigationService) *Hub {
	return &Hub{
		pool:              pool,
		ns:                make(map[uint]*User),
		navigationService: navigationService,
	}
}

func (h *Hub) Register(conn io.ReadWriteCloser) *User {
	events, cancel := h.navigationService.Subscribe()

	h.mu.Lock()
	h.seq++
	user := &User{
		conn:        conn,
		id:          h.seq,
		hub:         h,
		events:      events,
		unsubscribe: cancel,
	}
	h.ns[user.id] = user
	h.mu.Unlock()

	h.pool.Schedule(user.pumpEvents)
	return user
}

func (h *Hub) Remove(u *User) {
	h.mu.Lock()
	if _, ok := h.ns[u.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.ns, u.id)
	h.mu.Unlock()

	u.unsubscribe()
	u.conn.Close()
}

func (h *Hub) RemoveAllUser() {
	h.mu.Lock()
	users := make([]*User, 0, len(h.ns))
	for _, u := range h.ns {
		users = append(users, u)
	}
	h.ns = make(map[uint]*User)
	h.mu.Unlock()

	for _, u := range users {
		u.unsubscribe()
		u.conn.Close()
	}
}

func (h *Hub) NumUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ns)
}
