package cmd

import (
	"github.com/pion/webrtc/v4"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/config"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/signaling"
)

// ConnectionContext bundles the signaling client, its event handler, and
// the loaded config for one play session.
type ConnectionContext struct {
	Client  *signaling.Client
	Handler *signaling.Handler
	Config  *config.Config
}

func NewConnectionContext(cfg *config.Config) (*ConnectionContext, error) {
	client := signaling.NewClient(cfg.WebSocketURL)
	if err := client.Connect(); err != nil {
		return nil, err
	}

	handler := signaling.NewHandler(client.Incoming())
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
	if c.Handler != nil {
		c.Handler.Close()
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	return config.Load(opts)
}

// iceServers assembles the pion ICE server list from config: STUN always,
// TURN only when configured.
func iceServers(cfg *config.Config) []webrtc.ICEServer {
	servers := []webrtc.ICEServer{
		{URLs: cfg.GetSTUNServers()},
	}

	if turnURLs := cfg.GetTURNServers(); turnURLs != nil {
		user, pass := cfg.GetTURNCredentials()
		servers = append(servers, webrtc.ICEServer{
			URLs:       turnURLs,
			Username:   user,
			Credential: pass,
		})
	}

	return servers
}
