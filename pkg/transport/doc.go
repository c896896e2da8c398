// Package transport moves host messages into a binding runtime and events
// back out.
//
// Sources read wire envelopes (Redis pub/sub, line-delimited JSON streams)
// and hand them to a Host, normally a *binding.Runtime. Sinks implement
// protocol.EventSink: an in-memory recorder, a JSON line writer, Redis
// publish and Amazon SNS. Fanout combines several sinks.
package transport
