package security_test

import (
	"testing"

	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/security"
)

func testConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hasher := security.NewHasher(testConfig())

	hash, err := hasher.Hash("rooftop")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	ok, err := hasher.Verify("rooftop", hash)
	if err != nil {
		t.Fatalf("Verify returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("Verify failed for the correct password")
	}

	ok, err = hasher.Verify("basement", hash)
	if err != nil {
		t.Fatalf("Verify returned error for wrong password: %v", err)
	}
	if ok {
		t.Fatal("Verify returned true for incorrect password")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	if _, err := security.NewHasher(testConfig()).Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	hasher := security.NewHasher(testConfig())
	for _, bad := range []string{"not-a-hash", "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5"} {
		if _, err := hasher.Verify("irrelevant", bad); err == nil {
			t.Fatalf("expected error for malformed hash %q", bad)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hasher := security.NewHasher(testConfig())
	hash, err := hasher.Hash("rooftop")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hasher.NeedsRehash(hash) {
		t.Fatal("fresh hash should not need rehash")
	}

	stronger := testConfig()
	stronger.ArgonTime = 2
	if !security.NewHasher(stronger).NeedsRehash(hash) {
		t.Fatal("expected rehash when time cost changes")
	}
}
