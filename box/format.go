package box

// Marshal encodes b per §6's binary format: magic+v2/v3 for Version 2
// or 3, the legacy SSH-key-blob layout for VersionLegacy.
func (b *Box) Marshal() ([]byte, error) {
	if b.Curve == nil || b.RecipientPub == nil || b.EphemeralPub == nil {
		return nil, newErr(KindArgument, "box is missing curve or key fields")
	}
	if b.Curve != b.RecipientPub.Curve() || b.Curve != b.EphemeralPub.Curve() {
		return nil, newErr(KindCurve, "recipient.curve must equal ephemeral.curve")
	}

	switch b.Version {
	case VersionLegacy:
		return b.marshalV1()
	case Version2, Version3:
		return b.marshalV23()
	default:
		return nil, newErr(KindVersion, "unsupported box version")
	}
}

func (b *Box) marshalV23() ([]byte, error) {
	w := &wireWriter{}
	w.byte(magic[0])
	w.byte(magic[1])
	w.byte(b.Version)

	if b.GUIDSlotValid {
		w.byte(1)
		if len(b.GUID) != 16 {
			return nil, newErr(KindLength, "guid must be 16 bytes")
		}
		if err := w.string8(b.GUID); err != nil {
			return nil, err
		}
		w.byte(b.Slot)
	} else {
		w.byte(0)
		if err := w.string8(nil); err != nil {
			return nil, err
		}
		w.byte(0)
	}

	if err := w.cstring8(b.CipherName); err != nil {
		return nil, err
	}
	if err := w.cstring8(b.KDFName); err != nil {
		return nil, err
	}

	if b.Version >= Version2 {
		if err := w.string8(b.Nonce); err != nil {
			return nil, err
		}
	} else if len(b.Nonce) != 0 {
		return nil, newErr(KindArgument, "v1 boxes have no nonce")
	}

	cname, err := curveName(b.Curve)
	if err != nil {
		return nil, err
	}
	if err := w.cstring8(cname); err != nil {
		return nil, err
	}
	if err := w.string8(b.RecipientPub.Bytes()); err != nil {
		return nil, err
	}
	if err := w.string8(b.EphemeralPub.Bytes()); err != nil {
		return nil, err
	}
	if err := w.string8(b.IV); err != nil {
		return nil, err
	}
	if err := w.string32(b.Ciphertext); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

func (b *Box) marshalV1() ([]byte, error) {
	w := &wireWriter{}
	w.byte(VersionLegacy)

	guid := b.GUID
	if !b.GUIDSlotValid {
		guid = nil
	}
	if err := w.string32(guid); err != nil {
		return nil, err
	}
	w.byte(b.Slot)

	ephBlob, err := marshalSSHPublicKey(b.EphemeralPub)
	if err != nil {
		return nil, err
	}
	if err := w.string32(ephBlob); err != nil {
		return nil, err
	}
	recipBlob, err := marshalSSHPublicKey(b.RecipientPub)
	if err != nil {
		return nil, err
	}
	if err := w.string32(recipBlob); err != nil {
		return nil, err
	}

	if err := w.cstring32(b.CipherName); err != nil {
		return nil, err
	}
	if err := w.cstring32(b.KDFName); err != nil {
		return nil, err
	}
	if err := w.string32(b.IV); err != nil {
		return nil, err
	}
	if err := w.string32(b.Ciphertext); err != nil {
		return nil, err
	}
	return w.bytes(), nil
}

// Unmarshal decodes data into a Box, dispatching on the first byte:
// 0x01 is the legacy v1 layout (no magic), anything else must match
// the two-byte magic followed by a version in [2, versionNext).
func Unmarshal(data []byte) (*Box, error) {
	if len(data) == 0 {
		return nil, newErr(KindMagic, "empty box data")
	}
	if data[0] == VersionLegacy {
		return unmarshalV1(data)
	}
	return unmarshalV23(data)
}

func unmarshalV23(data []byte) (*Box, error) {
	r := newWireReader(data)
	m0, err := r.byte()
	if err != nil {
		return nil, err
	}
	m1, err := r.byte()
	if err != nil {
		return nil, err
	}
	if m0 != magic[0] || m1 != magic[1] {
		return nil, newErr(KindMagic, "bad box magic")
	}
	version, err := r.byte()
	if err != nil {
		return nil, err
	}
	if version < Version2 || version >= versionNext {
		return nil, newErr(KindVersion, "unsupported box version")
	}

	b := &Box{Version: version}
	flag, err := r.byte()
	if err != nil {
		return nil, err
	}
	guid, err := r.string8()
	if err != nil {
		return nil, err
	}
	slot, err := r.byte()
	if err != nil {
		return nil, err
	}
	if flag != 0 {
		if len(guid) != 16 {
			return nil, newErr(KindLength, "guid must be 16 bytes")
		}
		b.GUIDSlotValid = true
		b.GUID = append([]byte(nil), guid...)
		b.Slot = slot
	}

	if b.CipherName, err = r.cstring8(); err != nil {
		return nil, err
	}
	if b.KDFName, err = r.cstring8(); err != nil {
		return nil, err
	}

	if version >= Version2 {
		nonce, err := r.string8()
		if err != nil {
			return nil, err
		}
		b.Nonce = append([]byte(nil), nonce...)
	}

	cname, err := r.cstring8()
	if err != nil {
		return nil, err
	}
	curve, err := curveByName(cname)
	if err != nil {
		return nil, err
	}
	b.Curve = curve

	recipPoint, err := r.string8()
	if err != nil {
		return nil, err
	}
	b.RecipientPub, err = curve.NewPublicKey(recipPoint)
	if err != nil {
		return nil, wrapErr(KindCurve, "parsing recipient public key", err)
	}

	ephPoint, err := r.string8()
	if err != nil {
		return nil, err
	}
	b.EphemeralPub, err = curve.NewPublicKey(ephPoint)
	if err != nil {
		return nil, wrapErr(KindCurve, "parsing ephemeral public key", err)
	}

	if b.IV, err = r.string8(); err != nil {
		return nil, err
	}
	b.IV = append([]byte(nil), b.IV...)
	ct, err := r.string32()
	if err != nil {
		return nil, err
	}
	b.Ciphertext = append([]byte(nil), ct...)
	return b, nil
}

func unmarshalV1(data []byte) (*Box, error) {
	r := newWireReader(data)
	if _, err := r.byte(); err != nil { // version byte, already checked == 1
		return nil, err
	}
	b := &Box{Version: VersionLegacy}

	guid, err := r.string32()
	if err != nil {
		return nil, err
	}
	if len(guid) != 0 {
		if len(guid) != 16 {
			return nil, newErr(KindLength, "guid must be 16 bytes")
		}
		b.GUIDSlotValid = true
		b.GUID = append([]byte(nil), guid...)
	}
	slot, err := r.byte()
	if err != nil {
		return nil, err
	}
	b.Slot = slot

	ephBlob, err := r.string32()
	if err != nil {
		return nil, err
	}
	eph, curve, err := parseSSHPublicKey(ephBlob)
	if err != nil {
		return nil, err
	}
	recipBlob, err := r.string32()
	if err != nil {
		return nil, err
	}
	recip, recipCurve, err := parseSSHPublicKey(recipBlob)
	if err != nil {
		return nil, err
	}
	if curve != recipCurve {
		return nil, newErr(KindCurve, "recipient.curve must equal ephemeral.curve")
	}
	b.Curve = curve
	b.EphemeralPub = eph
	b.RecipientPub = recip

	if b.CipherName, err = r.cstring32(); err != nil {
		return nil, err
	}
	if b.KDFName, err = r.cstring32(); err != nil {
		return nil, err
	}
	iv, err := r.string32()
	if err != nil {
		return nil, err
	}
	b.IV = append([]byte(nil), iv...)
	ct, err := r.string32()
	if err != nil {
		return nil, err
	}
	b.Ciphertext = append([]byte(nil), ct...)
	return b, nil
}
