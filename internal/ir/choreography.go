package ir

import "strings"

// NodeType is the BPMN element kind of a choreography node.
type NodeType string

const (
	NodeStartEvent       NodeType = "startEvent"
	NodeEndEvent         NodeType = "endEvent"
	NodeTask             NodeType = "choreographyTask"
	NodeExclusiveGateway NodeType = "exclusiveGateway"
	NodeParallelGateway  NodeType = "parallelGateway"
	NodeInclusiveGateway NodeType = "inclusiveGateway"
)

// KnownNodeTypes lists every node type a definition may use.
var KnownNodeTypes = []NodeType{
	NodeStartEvent,
	NodeEndEvent,
	NodeTask,
	NodeExclusiveGateway,
	NodeParallelGateway,
	NodeInclusiveGateway,
}

// IsGateway reports whether t is one of the gateway kinds.
func (t NodeType) IsGateway() bool {
	switch t {
	case NodeExclusiveGateway, NodeParallelGateway, NodeInclusiveGateway:
		return true
	}
	return false
}

// Choreography is a BPMN choreography diagram reduced to the node, flow and
// attribute model the compiler needs.
type Choreography struct {
	Name         string        `json:"name" yaml:"name"`
	Participants []Participant `json:"participants,omitempty" yaml:"participants,omitempty"`
	Messages     []Message     `json:"messages,omitempty" yaml:"messages,omitempty"`
	Nodes        []Node        `json:"nodes" yaml:"nodes"`
	Flows        []Flow        `json:"flows,omitempty" yaml:"flows,omitempty"`
}

// Participant is an actor taking part in the choreography.
type Participant struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Message is a message definition exchanged by a task.
type Message struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Node is a start event, end event, choreography task or gateway.
//
// For tasks, Initiator names the initiating participant, Participants lists
// every participant involved (the initiator included) and Messages lists the
// exchanged messages in flow order: request first, optional response second.
type Node struct {
	ID           string   `json:"id" yaml:"id"`
	Type         NodeType `json:"type" yaml:"type"`
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Initiator    string   `json:"initiator,omitempty" yaml:"initiator,omitempty"`
	Participants []string `json:"participants,omitempty" yaml:"participants,omitempty"`
	Messages     []string `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Flow is a sequence flow edge between two nodes.
type Flow struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Node returns the node with the given id.
func (c *Choreography) Node(id string) (*Node, bool) {
	for i := range c.Nodes {
		if c.Nodes[i].ID == id {
			return &c.Nodes[i], true
		}
	}
	return nil, false
}

// Participant returns the participant with the given id.
func (c *Choreography) Participant(id string) (*Participant, bool) {
	for i := range c.Participants {
		if c.Participants[i].ID == id {
			return &c.Participants[i], true
		}
	}
	return nil, false
}

// Message returns the message with the given id.
func (c *Choreography) Message(id string) (*Message, bool) {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i], true
		}
	}
	return nil, false
}

// DisplayName returns the participant name, or its id when unnamed.
func (p Participant) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.ID
}

// DisplayName returns the message name, or its id when unnamed.
func (m Message) DisplayName() string {
	if strings.TrimSpace(m.Name) != "" {
		return m.Name
	}
	return m.ID
}
