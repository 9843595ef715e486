package piv

import (
	"encoding/binary"
	"fmt"
)

// probeYubico sends YubicoPIV GET_VERSION and, on supported firmware,
// GET_SERIAL (§4.C6 "Vendor probe"). Any SW other than a clean 3-byte
// version reply leaves IsYkpiv false silently — this is one of the §7
// "tolerated" recoveries.
func (tok *Token) probeYubico() error {
	body, s, err := tok.transmit(insGetVersion, 0, 0, nil, true)
	if err != nil {
		return err
	}
	if s != swSuccess || len(body) != 3 {
		tok.IsYkpiv = false
		return nil
	}
	tok.IsYkpiv = true
	tok.Firmware = FirmwareVersion{body[0], body[1], body[2]}

	if !tok.Firmware.AtLeast(5, 0, 0) {
		return nil
	}
	sBody, sw2, err := tok.transmit(insGetSerial, 0, 0, nil, true)
	if err != nil {
		return err
	}
	if sw2 == swSuccess && len(sBody) == 4 {
		tok.Serial = binary.BigEndian.Uint32(sBody)
		tok.hasSerial = true
	}
	return nil
}

// SetPINRetries configures the PIN and PUK retry counters (YubicoPIV
// INS 0xFA) and resets both to their default values, per the YubicoPIV
// extension. Requires prior management-key authentication.
func (tok *Token) SetPINRetries(pinRetries, pukRetries byte) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if !tok.IsYkpiv {
		return newErr(KindNotSupported, "set pin retries requires yubicopiv")
	}
	_, s, err := tok.transmit(insSetPINRetries, pinRetries, pukRetries, nil, false)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "setting pin retries", apduError(s))
	}
	tok.mustResetOnEnd = true
	return nil
}

// ResetApplet blocks the PIN and PUK, then issues the YubicoPIV factory
// reset (INS 0xFB), which wipes all slots and resets PIN/PUK/management
// key to their defaults. It does not affect other applets.
func (tok *Token) ResetApplet() error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	if !tok.IsYkpiv {
		return newErr(KindNotSupported, "reset requires yubicopiv")
	}

	if err := tok.blockPIN(); err != nil {
		return err
	}
	if err := tok.blockPUK(); err != nil {
		return err
	}

	_, s, err := tok.transmit(insReset, 0, 0, nil, false)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "resetting applet", apduError(s))
	}
	return nil
}

func (tok *Token) blockPIN() error {
	for {
		retries, err := tok.tryPIN(PINApplication, randomDigits(tok.rand, 8))
		if err != nil && !CaughtBy(err, KindPermission) {
			return err
		}
		if retries == 0 {
			return nil
		}
	}
}

func (tok *Token) blockPUK() error {
	for {
		puk := randomDigits(tok.rand, 8)
		s, err := tok.changeReference(insResetRetry, 0x80, puk, puk)
		if err != nil {
			return err
		}
		if n, ok := s.wrongPINRetries(); ok {
			if n == 0 {
				return nil
			}
			continue
		}
		if s == swAuthBlocked {
			return nil
		}
		return wrapErr(KindIOError, "blocking puk", apduError(s))
	}
}

func randomDigits(r interface{ Read([]byte) (int, error) }, n int) string {
	b := make([]byte, n)
	_, _ = r.Read(b)
	out := make([]byte, n)
	for i, v := range b {
		out[i] = '0' + v%10
	}
	return string(out)
}

// AuthManagementKey authenticates with the 3DES management key using the
// single-step challenge/response protocol (§4.C8 "admin_auth", specialized
// here to the fixed 3DES management key as the teacher's ykAuthenticate
// does; AdminAuth in admin.go exposes the general cipher-parameterized
// form).
func (tok *Token) AuthManagementKey(key [24]byte) error {
	if err := tok.requireSelected(); err != nil {
		return err
	}
	return tok.authManagementKey(key)
}

func (tok *Token) authManagementKey(key [24]byte) error {
	return tok.AdminAuth(Alg3DES, key[:])
}

// SetManagementKey rotates the management key. oldKey must already
// authenticate.
func (tok *Token) SetManagementKey(oldKey, newKey [24]byte) error {
	if err := tok.AuthManagementKey(oldKey); err != nil {
		return wrapErr(KindPermission, "authenticating with old management key", err)
	}
	req := append([]byte{byte(Alg3DES), byte(SlotCardManagement), 24}, newKey[:]...)
	_, s, err := tok.transmit(insSetMGMKey, 0xff, 0xff, req, false)
	if err != nil {
		return err
	}
	if s != swSuccess {
		return wrapErr(KindIOError, "setting management key", apduError(s))
	}
	return nil
}

func (tok *Token) String() string {
	return fmt.Sprintf("Token{reader=%q guid=%x ykpiv=%v}", tok.Reader, tok.GUID, tok.IsYkpiv)
}
