package loader

import (
	"context"

	"github.com/loomctl/loom/node"
	"github.com/loomctl/loom/pipeline"
)

// Message is one unit of work delivered by a message-bus-style
// producer: a Node plus an Ack the loader calls as soon as the node
// has been handed to the next pipeline stage, before it is processed
// or stored. Redelivery on a missing Ack is the producer's
// responsibility; ChannelLoader never drops a Message on its own.
type Message struct {
	Node *node.Node
	Ack  func()
}

// ChannelLoader adapts a Go channel of Messages into a pipeline.Loader
// for any message-bus producer, without depending on a concrete broker
// client. Because a Message is acked on hand-off, a node that fails or
// is lost after that point is not redelivered.
type ChannelLoader struct {
	in <-chan Message
}

// NewChannelLoader wraps in as a Loader.
func NewChannelLoader(in <-chan Message) *ChannelLoader {
	return &ChannelLoader{in: in}
}

func (l *ChannelLoader) IntoStream(ctx context.Context) <-chan pipeline.Result {
	out := make(chan pipeline.Result)
	go func() {
		defer close(out)
		for {
			select {
			case msg, ok := <-l.in:
				if !ok {
					return
				}
				select {
				case out <- pipeline.Ok(msg.Node):
					if msg.Ack != nil {
						msg.Ack()
					}
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
