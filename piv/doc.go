// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package piv implements a host-side driver for PIV smartcards (NIST SP
// 800-73-4) including the YubicoPIV vendor extensions. It discovers
// readers, selects the PIV applet, parses on-card identity objects,
// enumerates key slots, and drives PIV/YubicoPIV card commands: signing,
// ECDH, PIN and management-key authentication, key generation/import,
// and attestation.
//
// A Token is a connected card. Every operation that talks to the card
// requires a transaction, acquired with Token.Begin and released with
// Token.End. Connect returns a token that already holds its transaction
// and has selected the PIV applet; Close ends it:
//
//	tok, err := piv.Connect(readerName)
//	if err != nil {
//		// ...
//	}
//	defer tok.Close()
//	if _, err := tok.VerifyPIN(piv.PINApplication, piv.DefaultPIN, 0); err != nil {
//		// ...
//	}
//
// Enumerate and Find drive that sequence automatically to build a catalog
// of attached tokens.
package piv
