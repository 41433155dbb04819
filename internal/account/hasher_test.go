// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

package account_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infinitejoke/accounts/internal/account"
	"github.com/infinitejoke/accounts/internal/errutil"
)

// testParams keeps hashing fast in tests.
var testParams = account.Argon2Params{Time: 1, Memory: 1024, Threads: 1}

func TestHash(t *testing.T) {
	hasher := account.NewArgon2idHasher(testParams)

	t.Run("produces PHC string", func(t *testing.T) {
		hash, err := hasher.Hash("password123")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
		assert.Len(t, strings.Split(hash, "$"), 6)
	})

	t.Run("same password produces different hashes", func(t *testing.T) {
		hash1, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		hash2, err := hasher.Hash("samepassword")
		require.NoError(t, err)
		assert.NotEqual(t, hash1, hash2)

		for _, h := range []string{hash1, hash2} {
			ok, err := hasher.Verify("samepassword", h)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ACCOUNT_EMPTY_PASSWORD")
	})
}

func TestNewArgon2idHasher_Defaults(t *testing.T) {
	hasher := account.NewArgon2idHasher(account.Argon2Params{})

	hash, err := hasher.Hash("password123")
	require.NoError(t, err)
	assert.Contains(t, hash, "$m=65536,t=1,p=4$")
}

func TestVerify(t *testing.T) {
	hasher := account.NewArgon2idHasher(testParams)
	hash, err := hasher.Hash("correctpassword")
	require.NoError(t, err)

	t.Run("correct password verifies", func(t *testing.T) {
		ok, err := hasher.Verify("correctpassword", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("incorrect password fails", func(t *testing.T) {
		ok, err := hasher.Verify("wrongpassword", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hash made with other parameters verifies", func(t *testing.T) {
		other := account.NewArgon2idHasher(account.Argon2Params{Time: 2, Memory: 2048, Threads: 2})
		otherHash, err := other.Hash("correctpassword")
		require.NoError(t, err)

		ok, err := hasher.Verify("correctpassword", otherHash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	invalid := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "wrong part count", hash: "$argon2id$v=19$salt$hash"},
		{name: "bcrypt", hash: "$2a$10$abcdefghijklmnopqrstuv$abcdefghijklmnopqrstuvwxyz12345"},
		{name: "bad version", hash: "$argon2id$v=x$m=1024,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{name: "unsupported version", hash: "$argon2id$v=16$m=1024,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{name: "bad params", hash: "$argon2id$v=19$m=x,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{name: "threads overflow", hash: "$argon2id$v=19$m=1024,t=1,p=256$AAAAAAAAAAAAAAAAAAAAAA$AAAA"},
		{name: "bad salt", hash: "$argon2id$v=19$m=1024,t=1,p=1$!!!$AAAA"},
		{name: "bad key", hash: "$argon2id$v=19$m=1024,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$!!!"},
		{name: "empty key", hash: "$argon2id$v=19$m=1024,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$"},
	}
	for _, tt := range invalid {
		t.Run("invalid hash: "+tt.name, func(t *testing.T) {
			ok, err := hasher.Verify("password", tt.hash)
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, "ACCOUNT_INVALID_HASH")
		})
	}
}
