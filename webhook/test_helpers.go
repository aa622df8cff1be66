package webhook

import (
	"github.com/aidaptics/lead-relay/forward"
	"github.com/stretchr/testify/mock"
)

// MatchEnvelope creates a custom matcher for forwarded payload arguments in mocks
func MatchEnvelope(matcher func(Envelope) bool) interface{} {
	return mock.MatchedBy(func(p forward.Payload) bool {
		env, ok := p.(Envelope)
		return ok && matcher(env)
	})
}

// MatchEvent creates a custom matcher for inbound event arguments in mocks
func MatchEvent(matcher func(InboundEvent) bool) interface{} {
	return mock.MatchedBy(matcher)
}
