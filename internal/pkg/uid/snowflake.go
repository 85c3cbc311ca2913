package uid

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-ordered 64-bit ids.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a generator for node. A negative node derives one from the hostname,
// so replicas started from the same image still get distinct ids.
func NewSnowflake(node int64) (*Snowflake, error) {
	if node < 0 {
		node = hostNode()
	}

	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: n}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

func hostNode() int64 {
	host, err := os.Hostname()
	if err != nil {
		return 1
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(host))
	return int64(h.Sum32() % (1 << snowflake.NodeBits))
}
