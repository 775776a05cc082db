package memory

import (
	"testing"

	"proteomecore/internal/filterlist/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, NewStore())
}
