package edrefis

import (
	"github.com/edrefis/edrefis/logic"
	"github.com/edrefis/edrefis/netplay"
)

// Net is the local player's link to a netplay server.
type Net struct {
	Client *netplay.Client
	// Connected is false once the connection ended.
	Connected bool
	log       Logger
}

// send reports the first failure and stays quiet afterwards.
func (n *Net) send(m netplay.Message) {
	if !n.Connected {
		return
	}
	if err := n.Client.Send(m); err != nil {
		n.log.Warnf("netplay: %v", err)
		n.Connected = false
	}
}

// mirror passes the local provider through and reports every change of a
// key's held state to the server when the tick's sample is consumed. A key
// released and pressed again within one tick is sent as both, so the
// server sees the new press too. A press released within the same tick is
// dropped by the Keyboard before it is ever sampled, here and locally.
type mirror struct {
	logic.InputProvider
	net  *Net
	down [logic.InputCount]bool
}

func (m *mirror) Consume() {
	id := m.net.Client.ID()
	for _, input := range logic.AllInputs {
		down := m.InputProvider.KeyDown(input)
		if down && m.down[input] && m.InputProvider.KeyJustPressed(input) {
			m.net.send(netplay.Input{ClientID: id, Input: input, Down: false})
			m.down[input] = false
		}
		if down != m.down[input] {
			m.down[input] = down
			m.net.send(netplay.Input{ClientID: id, Input: input, Down: down})
		}
	}
	m.InputProvider.Consume()
}

// NetModule plays online through an already joined Client: local inputs
// and ticks are mirrored to the server and the other players' boards are
// kept in the Remotes resource. Install it before RendererModule.
type NetModule struct {
	Client *netplay.Client
}

func (mod NetModule) Install(app *App, cmd *Commands) {
	player := MustResource[PlayerInput](app)
	log := app.Logger()

	net := &Net{Client: mod.Client, Connected: true, log: log}
	player.Wrap(func(source logic.InputProvider) logic.InputProvider {
		return &mirror{InputProvider: source, net: net}
	})

	cmd.AddResources(net, &Remotes{})
	cmd.UseSystem(System(netReceiveSystem).InStage(Prelude))
	cmd.UseSystem(System(netTickSystem).InStage(PostUpdate))
	cmd.UseSystem(System(netCloseSystem).InState(OnExit(StatePlaying)).InStage(Finale))
	log.Infof("netplay: joined as %s", mod.Client.ID())
}

func netReceiveSystem(net *Net, remotes *Remotes) {
	for {
		select {
		case m, ok := <-net.Client.Messages():
			if !ok {
				if net.Connected {
					net.log.Warnf("netplay: disconnected")
				}
				net.Connected = false
				return
			}
			remotes.Apply(m)
		default:
			return
		}
	}
}

func netTickSystem(net *Net) {
	net.send(netplay.Tick{ClientID: net.Client.ID()})
}

func netCloseSystem(net *Net) error {
	net.Connected = false
	return net.Client.Close()
}
