// Package chat defines the domain types shared by every layer of the client:
// users, messages, outgoing payloads and the error taxonomy.
//
// # Messages
//
// A Message carries exactly one payload: Text or Image. Image is a
// self-contained data URI ("data:image/png;base64,..."). Messages are ordered
// by CreatedAt with ID as the tiebreak; see SortMessages.
//
// # Errors
//
// Failures are classified with sentinel errors and tested with errors.Is:
//
//   - ErrValidation: the caller supplied a malformed payload. Never retried.
//   - ErrFetch: roster or history retrieval failed.
//   - ErrSend: a message or profile write failed.
//   - ErrNoConversation: a send was attempted with nothing selected. It also
//     matches ErrValidation.
//   - ErrUnauthorized: the session token was rejected.
//
// # Images
//
// EncodeImage sniffs the content type of raw bytes, rejects anything that is
// not image/* or exceeds the size limit, and returns the data URI to put in
// OutgoingMessage.Image or ProfileUpdate.ProfilePic.
package chat
