package testutil

import (
	"fmt"

	"github.com/roach88/choreo/internal/ir"
)

// ChoreographyBuilder assembles ir.Choreography values for tests.
type ChoreographyBuilder struct {
	c     ir.Choreography
	flows int
}

// NewChoreography starts a builder for a definition with the given name.
func NewChoreography(name string) *ChoreographyBuilder {
	return &ChoreographyBuilder{c: ir.Choreography{Name: name}}
}

// Participant declares a participant.
func (b *ChoreographyBuilder) Participant(id, name string) *ChoreographyBuilder {
	b.c.Participants = append(b.c.Participants, ir.Participant{ID: id, Name: name})
	return b
}

// Message declares a message.
func (b *ChoreographyBuilder) Message(id, name string) *ChoreographyBuilder {
	b.c.Messages = append(b.c.Messages, ir.Message{ID: id, Name: name})
	return b
}

// Node adds a node of any type.
func (b *ChoreographyBuilder) Node(id string, typ ir.NodeType, name string) *ChoreographyBuilder {
	b.c.Nodes = append(b.c.Nodes, ir.Node{ID: id, Type: typ, Name: name})
	return b
}

// Start adds a start event.
func (b *ChoreographyBuilder) Start(id string) *ChoreographyBuilder {
	return b.Node(id, ir.NodeStartEvent, "")
}

// End adds an end event.
func (b *ChoreographyBuilder) End(id string) *ChoreographyBuilder {
	return b.Node(id, ir.NodeEndEvent, "")
}

// Task adds a task without participants or messages.
func (b *ChoreographyBuilder) Task(id, name string) *ChoreographyBuilder {
	return b.Node(id, ir.NodeTask, name)
}

// Exchange adds a task where initiator sends messages to recipient.
// Messages are given request first, optional response second.
func (b *ChoreographyBuilder) Exchange(id, name, initiator, recipient string, messages ...string) *ChoreographyBuilder {
	b.c.Nodes = append(b.c.Nodes, ir.Node{
		ID:           id,
		Type:         ir.NodeTask,
		Name:         name,
		Initiator:    initiator,
		Participants: []string{initiator, recipient},
		Messages:     messages,
	})
	return b
}

// Gateway adds a gateway of the given type.
func (b *ChoreographyBuilder) Gateway(id string, typ ir.NodeType) *ChoreographyBuilder {
	return b.Node(id, typ, "")
}

// Flow chains the given node ids with sequence flows.
func (b *ChoreographyBuilder) Flow(ids ...string) *ChoreographyBuilder {
	for i := 0; i+1 < len(ids); i++ {
		b.flows++
		b.c.Flows = append(b.c.Flows, ir.Flow{
			ID:     fmt.Sprintf("flow_%d", b.flows),
			Source: ids[i],
			Target: ids[i+1],
		})
	}
	return b
}

// Build returns the assembled definition.
func (b *ChoreographyBuilder) Build() *ir.Choreography {
	c := b.c
	return &c
}

// MinimalChoreography is a start event wired directly to an end event.
//
//	REI: ^$
func MinimalChoreography() *ir.Choreography {
	return NewChoreography("minimal").
		Start("start").End("end").
		Flow("start", "end").
		Build()
}

// SimpleChoreography is a straight sequence of three tasks.
//
//	REI: ^'order pizza' 'hand over pizza' 'deliver pizza'$
func SimpleChoreography() *ir.Choreography {
	return NewChoreography("simple").
		Start("start").
		Task("t1", "order pizza").
		Task("t2", "hand over pizza").
		Task("t3", "deliver pizza").
		End("end").
		Flow("start", "t1", "t2", "t3", "end").
		Build()
}

// GatewaysChoreography has one exclusive gateway with two branches.
//
//	REI: ^'order pizza' ('New Activity' | 'hand over pizza' 'deliver pizza')$
func GatewaysChoreography() *ir.Choreography {
	return NewChoreography("gateways").
		Start("start").
		Task("t1", "order pizza").
		Gateway("xo", ir.NodeExclusiveGateway).
		Task("t2", "New Activity").
		Task("t3", "hand over pizza").
		Task("t4", "deliver pizza").
		Gateway("xc", ir.NodeExclusiveGateway).
		End("end").
		Flow("start", "t1", "xo").
		Flow("xo", "t2", "xc").
		Flow("xo", "t3", "t4", "xc").
		Flow("xc", "end").
		Build()
}

// DanglingChoreography has an exclusive gateway that is never closed.
//
//	REI: ^'order pizza' ('New Activity'$ | 'hand over pizza' 'deliver pizza'$)
func DanglingChoreography() *ir.Choreography {
	return NewChoreography("dangling").
		Start("start").
		Task("t1", "order pizza").
		Gateway("xo", ir.NodeExclusiveGateway).
		Task("t2", "New Activity").
		Task("t3", "hand over pizza").
		Task("t4", "deliver pizza").
		End("end1").
		End("end2").
		Flow("start", "t1", "xo").
		Flow("xo", "t2", "end1").
		Flow("xo", "t3", "t4", "end2").
		Build()
}

// MixedBranchesChoreography opens an exclusive gateway where one branch ends
// on its own and the other two meet at the close.
//
//	REI: ^(c$ | a | b) z$
func MixedBranchesChoreography() *ir.Choreography {
	return NewChoreography("mixed").
		Start("start").
		Gateway("xo", ir.NodeExclusiveGateway).
		Task("a", "a").Task("b", "b").Task("c", "c").Task("z", "z").
		Gateway("xc", ir.NodeExclusiveGateway).
		End("end1").End("end2").
		Flow("start", "xo").
		Flow("xo", "c", "end1").
		Flow("xo", "a", "xc").
		Flow("xo", "b", "xc").
		Flow("xc", "z", "end2").
		Build()
}

// nested builds an outer gateway of the given type around an inner parallel
// gateway; intermediate optionally adds a task after the inner close.
func nested(name string, outer ir.NodeType, intermediate bool) *ir.Choreography {
	b := NewChoreography(name).
		Start("start").
		Task("t1", "order pizza").
		Gateway("go", outer).
		Task("t2", "New Activity").
		Task("t3", "hand over pizza").
		Task("t4", "deliver pizza").
		Gateway("po", ir.NodeParallelGateway).
		Task("t5", "Something").
		Task("t6", "Something else").
		Task("t7", "Another task").
		Gateway("pc", ir.NodeParallelGateway).
		Gateway("gc", outer).
		End("end").
		Flow("start", "t1", "go").
		Flow("go", "t2", "gc").
		Flow("go", "t3", "t4", "po").
		Flow("po", "t5", "t6", "pc").
		Flow("po", "t7", "pc")
	if intermediate {
		b.Task("t8", "Intermediate").Flow("pc", "t8", "gc")
	} else {
		b.Flow("pc", "gc")
	}
	return b.Flow("gc", "end").Build()
}

// NestedChoreography nests a parallel gateway inside an exclusive one.
//
//	REI: ^'order pizza' ('New Activity' | 'hand over pizza' 'deliver pizza' (Something 'Something else' & 'Another task'))$
func NestedChoreography() *ir.Choreography {
	return nested("nested", ir.NodeExclusiveGateway, false)
}

// InclusiveChoreography nests a parallel gateway inside an inclusive one.
//
//	REI: ^'order pizza' (('' | 'New Activity') & ('' | 'hand over pizza' 'deliver pizza' (Something 'Something else' & 'Another task')))$
func InclusiveChoreography() *ir.Choreography {
	return nested("inclusive", ir.NodeInclusiveGateway, false)
}

// IntermediateChoreography adds a task between the inner and outer close.
//
//	REI: ^'order pizza' ('New Activity' | 'hand over pizza' 'deliver pizza' (Something 'Something else' & 'Another task') Intermediate)$
func IntermediateChoreography() *ir.Choreography {
	return nested("intermediate", ir.NodeExclusiveGateway, true)
}

// DeliveryChoreography is a message-level pizza delivery with a dangling
// exclusive gateway, for rendering with receive events.
//
//	REI: ^Pizza_Place?pizza_order (Delivery_Boy?Message_1mi4idx Customer?pizza$ | Customer?refusal$)
func DeliveryChoreography() *ir.Choreography {
	return NewChoreography("delivery").
		Participant("customer", "Customer").
		Participant("place", "Pizza Place").
		Participant("boy", "Delivery Boy").
		Message("m_order", "pizza order").
		Message("Message_1mi4idx", "").
		Message("m_pizza", "pizza").
		Message("m_refusal", "refusal").
		Start("start").
		Exchange("t1", "order pizza", "customer", "place", "m_order").
		Gateway("xo", ir.NodeExclusiveGateway).
		Exchange("t2", "hand over pizza", "place", "boy", "Message_1mi4idx").
		Exchange("t3", "deliver pizza", "boy", "customer", "m_pizza").
		Exchange("t4", "refuse order", "place", "customer", "m_refusal").
		End("end1").
		End("end2").
		Flow("start", "t1", "xo").
		Flow("xo", "t2", "t3", "end1").
		Flow("xo", "t4", "end2").
		Build()
}

// RequestResponseChoreography has a two-message task followed by a parallel
// gateway of one-message tasks.
//
//	REI: ^Shop?quote_request Buyer?quote (Shop?payment & Courier?pickup)$
func RequestResponseChoreography() *ir.Choreography {
	return NewChoreography("request-response").
		Participant("buyer", "Buyer").
		Participant("shop", "Shop").
		Participant("courier", "Courier").
		Message("q1", "quote request").
		Message("q2", "quote").
		Message("pay", "payment").
		Message("pick", "pickup").
		Start("start").
		Exchange("t1", "ask quote", "buyer", "shop", "q1", "q2").
		Gateway("po", ir.NodeParallelGateway).
		Exchange("t2", "pay", "buyer", "shop", "pay").
		Exchange("t3", "book courier", "shop", "courier", "pick").
		Gateway("pc", ir.NodeParallelGateway).
		End("end").
		Flow("start", "t1", "po").
		Flow("po", "t2", "pc").
		Flow("po", "t3", "pc").
		Flow("pc", "end").
		Build()
}

// MismatchChoreography opens one exclusive gateway whose branches close at
// two distinct close gateways.
func MismatchChoreography() *ir.Choreography {
	return NewChoreography("mismatch").
		Start("start").
		Gateway("xo", ir.NodeExclusiveGateway).
		Task("a", "a").Task("b", "b").Task("c", "c").Task("d", "d").
		Gateway("xc1", ir.NodeExclusiveGateway).
		Gateway("xc2", ir.NodeExclusiveGateway).
		End("end1").End("end2").
		Flow("start", "xo").
		Flow("xo", "a", "xc1").
		Flow("xo", "b", "xc1").
		Flow("xo", "c", "xc2").
		Flow("xo", "d", "xc2").
		Flow("xc1", "end1").
		Flow("xc2", "end2").
		Build()
}

// TooManySuccessorsChoreography has a task with two outgoing flows.
func TooManySuccessorsChoreography() *ir.Choreography {
	return NewChoreography("too-many").
		Start("start").
		Task("t1", "fork").
		End("end1").End("end2").
		Flow("start", "t1", "end1").
		Flow("t1", "end2").
		Build()
}

// BadDegreeChoreography has a gateway with one incoming and one outgoing flow.
func BadDegreeChoreography() *ir.Choreography {
	return NewChoreography("bad-degree").
		Start("start").
		Gateway("g", ir.NodeParallelGateway).
		End("end").
		Flow("start", "g", "end").
		Build()
}

// LoopChoreography routes a branch back to an earlier task.
func LoopChoreography() *ir.Choreography {
	return NewChoreography("loop").
		Start("start").
		Task("t1", "try").
		Gateway("xo", ir.NodeExclusiveGateway).
		End("end").
		Flow("start", "t1", "xo").
		Flow("xo", "t1").
		Flow("xo", "end").
		Build()
}
