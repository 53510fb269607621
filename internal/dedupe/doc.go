// Package dedupe remembers recently seen message IDs so a message delivered
// twice (HTTP send acknowledgement plus websocket echo, or a transport
// redelivery after reconnect) is attributed only once.
package dedupe
