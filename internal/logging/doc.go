// Package logging builds the zap logger shared by the API server, the
// follow-up worker and the CLI.
//
// Entries go to stdout through a redacting encoder, to the OpenTelemetry
// log bridge, or to both. Below error level they are sampled so repeated
// status polls do not flood the output. Errors are never sampled.
//
// A call is followed across components by the IDs stored in its context:
//
//	ctx = logging.WithCallID(ctx, batchCallID)
//	ctx = logging.WithConversationID(ctx, conversationID)
//	logger.Info("conversation processed", logging.Fields(ctx)...)
//
// This writes request.id, call.id and conversation.id next to the trace
// IDs. Phone numbers go through MaskedPhone and credentials through Secret.
// Neither appears in clear text.
//
// NewTestLogger records entries for assertions, including AssertNoSecrets,
// which fails on any unredacted key or unmasked phone number.
package logging
