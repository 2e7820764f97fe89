package uid

import (
	"crypto/sha256"
	"encoding/binary"
	"os"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered int64 IDs using a snowflake node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a Snowflake generator whose node number is derived
// from a stable machine identity so replicas do not collide.
func NewSnowflake() (*Snowflake, error) {
	node, err := snowflake.NewNode(stableNodeNumber())
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique int64 identifier.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func stableNodeNumber() int64 {
	src := ""
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		src = strings.TrimSpace(string(b))
	}
	if src == "" {
		if h, err := os.Hostname(); err == nil {
			src = strings.TrimSpace(h)
		}
	}

	sum := sha256.Sum256([]byte(src))

	// snowflake node numbers are 10 bits
	return int64(binary.BigEndian.Uint16(sum[:2]) % 1024)
}
