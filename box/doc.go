// Package box implements the ECDH sealed-envelope primitive (§4.C9): a
// self-describing binary envelope that seals data to an EC public key
// using ephemeral-static ECDH plus an AEAD cipher, and opens it either
// with the holding smartcard's piv.Token or offline with the raw
// private key.
//
// A Box is a heap value independent of any piv.Token: Seal detaches it
// from the card entirely, and Open only ever fills in the Plaintext
// field.
package box
