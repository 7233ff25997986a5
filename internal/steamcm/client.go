package steamcm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	steam "github.com/Philipp15b/go-steam/v3"
	"github.com/Philipp15b/go-steam/v3/protocol"
	"github.com/Philipp15b/go-steam/v3/protocol/protobuf"
	"github.com/Philipp15b/go-steam/v3/protocol/steamlang"
	"github.com/andygrunwald/vdf"
	"google.golang.org/protobuf/proto"

	"github.com/hakkai/steam-artwork-downloader/internal/appinfo"
	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// anonymousSteamID is a SteamID of universe Public with account type
// AnonUser, the identity used for credential-less logons.
const anonymousSteamID = uint64(1)<<56 | uint64(10)<<52

// eventQueueSize bounds the translated event queue. The pump drains it
// every cycle, so the queue only grows while a PICS response is being
// parsed.
const eventQueueSize = 256

// Client adapts a go-steam connection to the appinfo.Client contract.
//
// go-steam surfaces everything through one events channel; Client
// translates those values into appinfo events and buffers them until the
// session pump collects them with PumpEvents. PICS product info responses
// do not appear on the events channel at all and are captured through a
// packet handler instead.
type Client struct {
	client *steam.Client
	queue  chan appinfo.Event
}

var _ appinfo.Client = (*Client)(nil)

// NewClient creates a Client and starts draining the underlying go-steam
// event channel. The connection itself is not established until Connect.
func NewClient() *Client {
	c := &Client{
		client: steam.NewClient(),
		queue:  make(chan appinfo.Event, eventQueueSize),
	}
	c.client.RegisterPacketHandler(c)
	go c.translate()
	return c
}

// Connect starts dialing a CM server. The outcome arrives as a
// ConnectedEvent or DisconnectedEvent.
func (c *Client) Connect() {
	c.client.Connect()
}

// Disconnect tears down the connection.
func (c *Client) Disconnect() {
	c.client.Disconnect()
}

// LogOnAnonymously sends a credential-less logon. go-steam's Auth helper
// insists on an account name, so the logon message is written directly
// with an anonymous SteamID in the header.
func (c *Client) LogOnAnonymously() {
	msg := protocol.NewClientMsgProtobuf(steamlang.EMsg_ClientLogon, &protobuf.CMsgClientLogon{
		ProtocolVersion: proto.Uint32(uint32(steamlang.MsgClientLogon_CurrentProtocol)),
		ClientLanguage:  proto.String("english"),
	})
	msg.Header.Proto.Steamid = proto.Uint64(anonymousSteamID)
	c.client.Write(msg)
}

// RequestAppInfo asks PICS for one app's product info. The response is
// delivered later as an AppInfoEvent, possibly batched with other apps.
func (c *Client) RequestAppInfo(id model.AppID) {
	req := &protobuf.CMsgClientPICSProductInfoRequest{
		Apps: []*protobuf.CMsgClientPICSProductInfoRequest_AppInfo{
			{Appid: proto.Uint32(uint32(id))},
		},
	}
	c.client.Write(protocol.NewClientMsgProtobuf(steamlang.EMsg_ClientPICSProductInfoRequest, req))
}

// PumpEvents waits up to timeout for the first queued event, then drains
// whatever else is queued without blocking.
func (c *Client) PumpEvents(timeout time.Duration) ([]appinfo.Event, error) {
	var events []appinfo.Event
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-c.queue:
		events = append(events, ev)
	case <-timer.C:
		return nil, nil
	}
	for {
		select {
		case ev := <-c.queue:
			events = append(events, ev)
		default:
			return events, nil
		}
	}
}

// HandlePacket captures PICS product info responses. All other packets are
// left to go-steam's own handlers.
func (c *Client) HandlePacket(packet *protocol.Packet) {
	if packet.EMsg != steamlang.EMsg_ClientPICSProductInfoResponse {
		return
	}

	body := new(protobuf.CMsgClientPICSProductInfoResponse)
	packet.ReadProtoMsg(body)

	apps := make(map[model.AppID]*model.KeyValue)
	for _, app := range body.GetApps() {
		kv, err := parseAppBuffer(app.GetBuffer())
		if err != nil {
			continue
		}
		apps[model.AppID(app.GetAppid())] = kv
	}
	if len(apps) > 0 {
		c.enqueue(appinfo.AppInfoEvent{Apps: apps})
	}
}

// translate forwards go-steam lifecycle events into the queue. go-steam
// blocks its network loop when the events channel is not consumed, so this
// goroutine runs for the life of the Client.
func (c *Client) translate() {
	for ev := range c.client.Events() {
		switch e := ev.(type) {
		case *steam.ConnectedEvent:
			c.enqueue(appinfo.ConnectedEvent{})
		case *steam.DisconnectedEvent:
			c.enqueue(appinfo.DisconnectedEvent{})
		case *steam.LoggedOnEvent:
			var err error
			if e.Result != steamlang.EResult_OK {
				err = fmt.Errorf("logon rejected: %v", e.Result)
			}
			c.enqueue(appinfo.LoggedOnEvent{Err: err})
		case *steam.LogOnFailedEvent:
			c.enqueue(appinfo.LoggedOnEvent{Err: fmt.Errorf("logon failed: %v", e.Result)})
		case steam.FatalErrorEvent:
			c.enqueue(appinfo.DisconnectedEvent{Err: e})
		}
	}
}

func (c *Client) enqueue(ev appinfo.Event) {
	select {
	case c.queue <- ev:
	default:
		// Queue full means the pump is gone; dropping is the only option.
	}
}

// parseAppBuffer decodes a PICS app buffer, which is text VDF terminated by
// a NUL byte, into a key/value tree. Children are sorted by name so that
// repeated fetches of the same app produce identical trees.
func parseAppBuffer(buffer []byte) (*model.KeyValue, error) {
	text := strings.TrimRight(string(buffer), "\x00")
	data, err := vdf.NewParser(strings.NewReader(text)).Parse()
	if err != nil {
		return nil, fmt.Errorf("parsing appinfo VDF: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty appinfo buffer")
	}

	names := sortedKeys(data)
	if len(names) == 1 {
		return toKeyValue(names[0], data[names[0]]), nil
	}

	root := &model.KeyValue{Name: "appinfo"}
	for _, name := range names {
		root.Children = append(root.Children, toKeyValue(name, data[name]))
	}
	return root, nil
}

func toKeyValue(name string, value interface{}) *model.KeyValue {
	kv := &model.KeyValue{Name: name}
	children, ok := value.(map[string]interface{})
	if !ok {
		kv.Value = fmt.Sprint(value)
		return kv
	}
	for _, n := range sortedKeys(children) {
		kv.Children = append(kv.Children, toKeyValue(n, children[n]))
	}
	return kv
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
