// Package auth keeps the QuickChat session token between runs and reads the
// identity it carries.
//
// # Token Storage
//
// The token is looked up the same way by every command:
//
//  1. QUICKCHAT_TOKEN environment variable
//  2. The configured token file, by default
//     $XDG_CONFIG_HOME/quickchat/token (or ~/.config/quickchat/token)
//
// Save writes the file with 0600 permissions; Delete removes it on logout.
//
// # Claims
//
// The server signs tokens with a secret the client never sees, so ParseClaims
// decodes the payload without verifying the signature. It is used only to
// learn the user ID for the socket URL and to notice an expired token before
// making a request; the server remains the authority via CheckAuth.
package auth
