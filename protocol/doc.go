// Package protocol implements the ASCII wire protocol of the Microchip
// RN2483/RN2903 LoRaWAN modules: rendering typed commands to their exact
// command-line form and classifying reply lines into acknowledgements,
// module errors, and asynchronous events.
//
// Wire format:
//
//	Command:            VERB [ARG...]\r\n        e.g. "mac set dr 5"
//	Acknowledgement:    ok | <value>             e.g. "0004A30B001A55ED"
//	Module error:       invalid_param | busy | ...
//	Asynchronous event: accepted | denied | mac_tx_ok | mac_err |
//	                    mac_rx <port> <hexdata>
//
// Binary fields (keys, EUIs, payloads) are hex-encoded, two characters per
// byte, lowercase on the way out; replies are accepted in either case.
//
// The package is pure: encoding writes into caller-provided buffers and
// classification only reads. All I/O lives in the parent package.
package protocol
