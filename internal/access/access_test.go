package access_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redline-rp/portal/internal/access"
)

func TestHasAccess_AllCombinations(t *testing.T) {
	for _, member := range []bool{false, true} {
		for _, special := range []bool{false, true} {
			for _, admin := range []bool{false, true} {
				f := access.Flags{IsMember: member, IsSpecial: special, IsAdmin: admin}
				t.Run(fmt.Sprintf("member=%t special=%t admin=%t", member, special, admin), func(t *testing.T) {
					assert.Equal(t, member || special || admin, access.HasAccess(f))
				})
			}
		}
	}
}

func TestHasAccess_ZeroValueDenies(t *testing.T) {
	assert.False(t, access.HasAccess(access.Flags{}))
}
