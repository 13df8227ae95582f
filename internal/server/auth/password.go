package auth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/accountd/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Argon2Params are the cost parameters for new hashes. Verification always
// uses the parameters encoded in the stored hash.
type Argon2Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params mirrors the reference argon2 library defaults, so
// hashes produced elsewhere with default settings verify here unchanged.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords. At most `concurrency` derivations
// run at once; callers beyond that wait or give up with their context.
type Hasher struct {
	params Argon2Params
	sem    *semaphore.Weighted
}

func NewHasher(params Argon2Params, concurrency int) *Hasher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Hasher{params: params, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns a PHC-encoded argon2id hash:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if plain == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrorValidation)
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	p := h.params
	salt := common.GenerateRandByteArray(int(p.SaltLength))
	key := argon2.IDKey([]byte(plain), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches encoded. A mismatch is (false, nil);
// an unparsable hash is common.ErrorMalformedHash.
func (h *Hasher) Verify(ctx context.Context, plain, encoded string) (bool, error) {
	d, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	var candidate []byte
	keyLen := uint32(len(d.key))
	if d.variant == "argon2i" {
		candidate = argon2.Key([]byte(plain), d.salt, d.iterations, d.memory, d.parallelism, keyLen)
	} else {
		candidate = argon2.IDKey([]byte(plain), d.salt, d.iterations, d.memory, d.parallelism, keyLen)
	}

	return subtle.ConstantTimeCompare(candidate, d.key) == 1, nil
}

type decodedHash struct {
	variant     string
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decodeHash(encoded string) (*decodedHash, error) {
	malformed := func(reason string) error {
		return fmt.Errorf("%w: %s", common.ErrorMalformedHash, reason)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, malformed("unexpected number of fields")
	}

	d := &decodedHash{variant: parts[1]}
	if d.variant != "argon2id" && d.variant != "argon2i" {
		return nil, malformed("unsupported variant " + d.variant)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || fmt.Sprintf("v=%d", version) != parts[2] {
		return nil, malformed("bad version field")
	}
	if version != argon2.Version {
		return nil, malformed(fmt.Sprintf("unsupported version %d", version))
	}

	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.iterations, &d.parallelism)
	if err != nil || fmt.Sprintf("m=%d,t=%d,p=%d", d.memory, d.iterations, d.parallelism) != parts[3] {
		return nil, malformed("bad parameter field")
	}
	if d.memory == 0 || d.iterations == 0 || d.parallelism == 0 {
		return nil, malformed("zero cost parameter")
	}

	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return nil, malformed("bad salt")
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return nil, malformed("bad key")
	}

	return d, nil
}
