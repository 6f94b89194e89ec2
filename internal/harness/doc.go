// Package harness runs conformance scenarios against compiled choreographies.
//
// A scenario is a YAML file naming a definition, the compile options, an
// event sequence and the expected outcome:
//
//	name: delayed_delivery
//	description: "The pizza arrives before the order is placed"
//	definition: definitions/delivery.cue
//	render: receive
//	events:
//	  - Customer?pizza
//	  - Pizza_Place?pizza_order
//	  - Delivery_Boy?Message_1mi4idx
//	expect:
//	  outputs: [Pizza_Place?pizza_order, Delivery_Boy?Message_1mi4idx, Customer?pizza]
//	  ended: true
//	  buffer: []
//	assertions:
//	  - type: buffered
//	    event: Customer?pizza
//
// Each scenario runs in a fresh in-memory store with a deterministic clock.
// The instance is persisted and replayed from storage, so every passing
// scenario also proves that its stored inputs reproduce its outputs.
//
// Golden traces are the canonical JSON rendering of the enforcer history.
// Tests compare them with goldie; the CLI compares them with files under the
// scenario directory's golden/ folder.
package harness
