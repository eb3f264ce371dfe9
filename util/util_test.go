package util

import (
	"bytes"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSymmetricEncryption(t *testing.T) {
	c := qt.New(t)
	key, err := GenerateSymmetricKey()
	c.Assert(err, qt.IsNil)
	c.Assert(key, qt.HasLen, 32)

	msg := []byte(`{"socialId":"001-0000000-1"}`)
	cipher, err := EncryptSymmetric(msg, key)
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.Equal(cipher, msg), qt.IsFalse)

	plain, ok := DecryptSymmetric(cipher, key)
	c.Assert(ok, qt.IsTrue)
	c.Assert(plain, qt.DeepEquals, msg)

	// wrong key
	_, ok = DecryptSymmetric(cipher, []byte("another key"))
	c.Assert(ok, qt.IsFalse)
	// truncated message
	_, ok = DecryptSymmetric(cipher[:10], key)
	c.Assert(ok, qt.IsFalse)
	_, ok = DecryptSymmetric(nil, key)
	c.Assert(ok, qt.IsFalse)

	// short keys are zero padded
	cipher, err = EncryptSymmetric(msg, []byte("key"))
	c.Assert(err, qt.IsNil)
	plain, ok = DecryptSymmetric(cipher, []byte("key"))
	c.Assert(ok, qt.IsTrue)
	c.Assert(plain, qt.DeepEquals, msg)
}

func TestNormalizeAddress(t *testing.T) {
	c := qt.New(t)
	c.Assert(NormalizeAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), qt.Equals,
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	c.Assert(NormalizeAddress(" 5aaeb6053f3e94c9b9a09f33669435e7ef1beaed "), qt.Equals,
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	c.Assert(NormalizeAddress("0x1234"), qt.Equals, "")
	c.Assert(NormalizeAddress(""), qt.Equals, "")
}

func TestParseIntList(t *testing.T) {
	c := qt.New(t)
	list, err := ParseIntList("1, 2,3,")
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.DeepEquals, []int{1, 2, 3})

	list, err = ParseIntList("")
	c.Assert(err, qt.IsNil)
	c.Assert(list, qt.HasLen, 0)

	_, err = ParseIntList("1,two")
	c.Assert(err, qt.IsNotNil)
}

func TestHexPrefixed(t *testing.T) {
	qt.Assert(t, HexPrefixed("abcd"), qt.Equals, "0xabcd")
	qt.Assert(t, HexPrefixed("0xabcd"), qt.Equals, "0xabcd")
}
