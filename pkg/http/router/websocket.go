package router

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/mailru/easygo/netpoll"
	"github.com/tylerkaska112/tripnav/pkg/concurrent"
	"github.com/tylerkaska112/tripnav/pkg/http/router/controllers"
	http_server "github.com/tylerkaska112/tripnav/pkg/http/server"
	"go.uber.org/zap"
)

/*
handleWebsocket runs the position-stream listener. Positions arrive at sensor
cadence per connected host, so connections are served off an epoll-driven
poller and a bounded goroutine pool instead of one goroutine per connection.
ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
*/
func (api *API) handleWebsocket(ctx context.Context, config http_server.Config,
	navigationService controllers.NavigationService,
	errChan chan error,
) {
	var err error

	srvAddr := fmt.Sprintf(":%d", config.WebsocketPort)
	ln, err := net.Listen("tcp", srvAddr)
	if err != nil {
		errChan <- err
		return
	}
	api.log.Info(fmt.Sprintf("navigation websocket API run on port %d", config.WebsocketPort))

	acceptDesc := netpoll.Must(netpoll.HandleListener(
		ln, netpoll.EventRead|netpoll.EventOneShot,
	))

	api.poller, err = netpoll.New(nil)
	if err != nil {
		errChan <- err
		return
	}

	api.pool = concurrent.NewWorkerPool(15, 10)
	api.hub = controllers.NewHub(api.pool, navigationService)
	api.pool.Spawn(10)

	// accept signals the result of the next incoming connection Accept()
	accept := make(chan error, 1)

	api.poller.Start(acceptDesc, func(conn netpoll.Event) {
		defer api.poller.Resume(acceptDesc)
		err := api.pool.ScheduleTimeout(1000*time.Millisecond, func() {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return
			}

			accept <- nil
			api.handle(conn)
		})
		if err == nil {
			err = <-accept
		}
		if err != nil {
			// pool full for 1 ms with connections arriving: cool down for 5 ms
			if err != concurrent.ErrScheduleTimeout {
				delay := 5 * time.Millisecond
				api.log.Sugar().Infof("accept error: %v; retrying in %s", err, delay)
				time.Sleep(delay)
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				delay := 5 * time.Millisecond
				api.log.Sugar().Infof("accept error: %v; retrying in %s", err, delay)
				time.Sleep(delay)
			} else {
				api.log.Sugar().Fatalf("accept error: %v", err)
			}
		}
	})

	<-ctx.Done()

	ln.Close()
	api.hub.RemoveAllUser()
	api.poller.Stop(acceptDesc)
	api.pool.Close()

	api.log.Info("websocket server stopped")
}

func (api *API) handle(conn net.Conn) {

	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection name", nameConn(conn)))
		conn.Close()
		return
	}

	api.log.Info("established websocket connection", zap.String("connection name", nameConn(conn)),
		zap.String("protocol", hs.Protocol))

	user := api.hub.Register(conn)

	desc := netpoll.Must(netpoll.HandleRead(conn))

	api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			api.log.Info("host disconnected from websocket server")

			api.poller.Stop(desc)
			api.hub.Remove(user)
			return
		}

		api.pool.Schedule(func() {
			// feed the position fix to the engine & answer with the snapshot
			err := user.HandlePosition()
			if err != nil {
				api.log.Error("error handling position frame", zap.Error(err))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		})
	})
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
