// Package elevenlabs is a client for the ElevenLabs conversational AI API:
// agent creation, outbound batch calls, and conversation retrieval.
//
// Every request waits on a token-bucket limiter and is retried with
// exponential backoff on transport errors, 429 and 5xx responses.
package elevenlabs
