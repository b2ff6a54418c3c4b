// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package controller wires the registry, pipeline and exporter together
// and exposes the admin HTTP surface, the direct descendant of the
// teacher's sniffer-driven controller: a sniffer fed a portPools dispatch
// table that demultiplexed L4 packets into a connstream.Pool, emitting
// socket.RoundTrip values onto a channel consumed by the pipeline. There
// is no sniffer, no port-based protocol dispatch and no TCP reassembly
// here: a session id already identifies the flow, so the registry takes
// portPools's place and a session's own Callbacks table takes the
// connstream.Pool's place.
package controller

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/confengine"
	"github.com/packetd/nghq/exporter"
	"github.com/packetd/nghq/h3"
	"github.com/packetd/nghq/internal/json"
	"github.com/packetd/nghq/internal/pubsub"
	"github.com/packetd/nghq/internal/sigs"
	"github.com/packetd/nghq/logger"
	"github.com/packetd/nghq/pipeline"
	"github.com/packetd/nghq/registry"
	"github.com/packetd/nghq/server"
	"github.com/packetd/nghq/transportshim"
)

type Controller struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       Config
	buildInfo common.BuildInfo

	reg   *registry.Registry
	pl    *pipeline.Pipeline
	exp   *exporter.Exporter
	svr   *server.Server
	rtBus *pubsub.PubSub

	events chan *common.LifecycleEvent

	mut   sync.Mutex
	shims map[string]*transportshim.UDPShim
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}

	if opts.Filename == "" {
		opts.Filename = "nghq.log"
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = 7
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = 100
	}

	logger.SetOptions(opts)
	return nil
}

func New(conf *confengine.Config, buildInfo common.BuildInfo) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	exp, err := exporter.New(conf)
	if err != nil {
		return nil, err
	}

	pl, err := pipeline.New(conf)
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := conf.UnpackChild("controller", &cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		buildInfo: buildInfo,
		pl:        pl,
		exp:       exp,
		svr:       svr,
		rtBus:     pubsub.New(),
		events:    make(chan *common.LifecycleEvent, cfg.GetEventQueueSize()),
		shims:     make(map[string]*transportshim.UDPShim),
	}
	c.reg = registry.New(c.createSession, cfg.FreezeSeconds)
	return c, nil
}

// createSession is the registry.CreateSessionFunc: it looks up the
// transport a caller bound via DialUnicast/ListenMulticast and wraps it
// in a sessionCallbacks before handing the pair to h3.NewSession.
func (c *Controller) createSession(id []byte, role h3.Role, mode h3.Mode) *h3.Session {
	c.mut.Lock()
	shim := c.shims[string(id)]
	c.mut.Unlock()

	cb := &sessionCallbacks{
		UDPShim:   shim,
		ctrl:      c,
		sessionID: append([]byte(nil), id...),
		role:      role,
		streams:   make(map[*h3.Stream]*streamState),
	}
	return h3.NewSession(role, mode, id, h3.NewFakeTransportEngine(), cb)
}

func (c *Controller) bindTransport(id []byte, shim *transportshim.UDPShim) {
	c.mut.Lock()
	c.shims[string(id)] = shim
	c.mut.Unlock()
}

// DialUnicast dials a unicast peer and registers a session under id, the
// pairing a host performs before a production transport engine exists
// (h3.FakeTransportEngine's doc comment sanctions exactly this use).
func (c *Controller) DialUnicast(id []byte, role h3.Role, local, remote string) (*h3.Session, *transportshim.UDPShim, error) {
	shim, err := transportshim.DialUnicast(local, remote)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial unicast")
	}

	c.bindTransport(id, shim)
	sess, ok := c.reg.GetOrCreate(id, role, h3.ModeUnicast)
	if !ok {
		shim.Close()
		return nil, nil, fmt.Errorf("session id %x is frozen against reuse", id)
	}
	activeSessions.Set(float64(c.reg.Len()))
	return sess, shim, nil
}

// ListenMulticast joins a multicast group and registers a server session
// under id.
func (c *Controller) ListenMulticast(id []byte, group string, iface *net.Interface) (*h3.Session, *transportshim.UDPShim, error) {
	shim, err := transportshim.ListenMulticast(group, iface)
	if err != nil {
		return nil, nil, errors.Wrap(err, "listen multicast")
	}

	c.bindTransport(id, shim)
	sess, ok := c.reg.GetOrCreate(id, h3.RoleServer, h3.ModeMulticast)
	if !ok {
		shim.Close()
		return nil, nil, fmt.Errorf("session id %x is frozen against reuse", id)
	}
	activeSessions.Set(float64(c.reg.Len()))
	return sess, shim, nil
}

// CloseSession tears down the session keyed by id along with its bound
// transport.
func (c *Controller) CloseSession(id []byte) error {
	err := c.reg.Delete(id)

	c.mut.Lock()
	delete(c.shims, string(id))
	c.mut.Unlock()

	activeSessions.Set(float64(c.reg.Len()))
	return err
}

func (c *Controller) Start() error {
	c.setupServer()

	go c.consumeEvents()
	go c.removeExpiredSessions()

	if c.svr != nil {
		go func() {
			err := c.svr.ListenAndServe()
			if !errors.Is(err, io.EOF) {
				logger.Errorf("failed to start server: %v", err)
			}
		}()
	}

	c.exp.Start()
	return nil
}

func (c *Controller) removeExpiredSessions() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.reg.RemoveExpired(c.cfg.GetSessionExpired()); err != nil {
				logger.Errorf("failed to remove expired sessions: %v", err)
			}
			activeSessions.Set(float64(c.reg.Len()))

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Controller) recordMetrics() {
	uptime.Set(float64(time.Now().Unix() - common.Started()))
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Inc()
	activeSessions.Set(float64(c.reg.Len()))
}

// Reload re-reads logger options. Session/transport wiring is a
// process-lifetime decision made by the CLI command, not something a
// SIGHUP can safely rebuild underneath live sessions.
func (c *Controller) Reload(conf *confengine.Config) error {
	return setupLogger(conf)
}

func (c *Controller) Stop() {
	c.cancel()

	if err := c.reg.Clean(); err != nil {
		logger.Errorf("failed to clean registry: %v", err)
	}

	c.mut.Lock()
	for _, shim := range c.shims {
		shim.Close()
	}
	c.mut.Unlock()

	c.exp.Close()
}

func (c *Controller) emit(ev *common.LifecycleEvent) {
	select {
	case c.events <- ev:
	default:
		droppedEvents.Inc()
	}
}

func (c *Controller) consumeEvents() {
	for {
		select {
		case ev := <-c.events:
			handledEvents.Inc()
			if b, err := json.Marshal(ev); err == nil {
				c.rtBus.Publish(b)
			}

			record := common.NewEventRecord(ev)
			c.exp.Export(record)
			c.pl.Range(record, func(dst *common.Record) {
				c.exp.Export(dst)
			})

		case <-c.ctx.Done():
			return
		}
	}
}
