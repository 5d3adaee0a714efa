// Package gossip broadcasts fill events over libp2p pubsub so competing
// fillers can drop in-flight attempts against orders that are already
// exhausted, instead of burning swaps that will be rejected on arrival.
package gossip

import (
	"context"
	"sync"

	libp2p "github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/zap"

	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
)

const topicFills = "settlement-fills"

// Announcer publishes this node's fills and surfaces fills seen from peers.
type Announcer struct {
	h     host.Host
	ps    *pubsub.PubSub
	log   *zap.SugaredLogger
	topic *pubsub.Topic
	sub   *pubsub.Subscription

	muH    sync.RWMutex
	onFill func(settlement.FillEvent)
}

type Config struct {
	ListenAddr string   // Multiaddr to listen on, e.g. /ip4/0.0.0.0/tcp/9000
	Bootstrap  []string // Peers to dial at startup
	Logger     *zap.SugaredLogger
}

func NewAnnouncer(ctx context.Context, cfg Config) (*Announcer, error) {
	var opts []libp2p.Option
	if cfg.ListenAddr != "" {
		maddr, err := ma.NewMultiaddr(cfg.ListenAddr)
		if err != nil {
			return nil, err
		}
		opts = append(opts, libp2p.ListenAddrs(maddr))
	}
	h, err := libp2p.New(opts...)
	if err != nil {
		return nil, err
	}
	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		return nil, err
	}

	a := &Announcer{h: h, ps: ps, log: cfg.Logger}

	for _, bs := range cfg.Bootstrap {
		if err := connectMultiaddr(ctx, h, bs); err != nil && cfg.Logger != nil {
			cfg.Logger.Warnw("bootstrap_connect_failed", "addr", bs, "err", err)
		}
	}

	if a.topic, err = ps.Join(topicFills); err != nil {
		return nil, err
	}
	if a.sub, err = a.topic.Subscribe(); err != nil {
		return nil, err
	}
	go a.readLoop(ctx)

	if cfg.Logger != nil {
		cfg.Logger.Infow("gossip_ready", "peer", h.ID().String(), "listen", cfg.ListenAddr)
	}
	return a, nil
}

func connectMultiaddr(ctx context.Context, h host.Host, addr string) error {
	m, err := ma.NewMultiaddr(addr)
	if err != nil {
		return err
	}
	info, err := peer.AddrInfoFromP2pAddr(m)
	if err != nil {
		return err
	}
	return h.Connect(ctx, *info)
}

// OnFill registers the handler invoked for every fill announced by a peer.
// Own announcements are filtered out.
func (a *Announcer) OnFill(fn func(settlement.FillEvent)) {
	a.muH.Lock()
	a.onFill = fn
	a.muH.Unlock()
}

// PublishFill announces one of this node's fills to the network.
func (a *Announcer) PublishFill(ctx context.Context, ev settlement.FillEvent) error {
	data, err := gobEncode(toWire(ev))
	if err != nil {
		return err
	}
	return a.topic.Publish(ctx, data)
}

func (a *Announcer) Close() error {
	a.sub.Cancel()
	return a.h.Close()
}

func (a *Announcer) readLoop(ctx context.Context) {
	for {
		msg, err := a.sub.Next(ctx)
		if err != nil {
			return
		}
		if msg.ReceivedFrom == a.h.ID() {
			continue
		}
		var w FillWire
		if err := gobDecode(msg.Data, &w); err != nil {
			if a.log != nil {
				a.log.Debugw("gossip_decode_failed", "err", err)
			}
			continue
		}

		a.muH.RLock()
		fn := a.onFill
		a.muH.RUnlock()
		if fn != nil {
			fn(fromWire(w))
		}
	}
}
