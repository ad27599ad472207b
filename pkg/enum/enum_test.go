package enum_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/questx-lab/badge-minter/internal/entity"
	"github.com/questx-lab/badge-minter/pkg/enum"
	"github.com/stretchr/testify/require"
)

func TestToEnum_MintAttemptStatus(t *testing.T) {
	for _, name := range []string{"pending", "success", "failed"} {
		status, err := enum.ToEnum[entity.MintAttemptStatus](name)
		require.NoError(t, err)
		require.Equal(t, name, enum.ToString(status))
	}

	_, err := enum.ToEnum[entity.MintAttemptStatus]("Pending")
	require.Error(t, err)

	_, err = enum.ToEnum[entity.MintAttemptStatus]("unresolved")
	require.Error(t, err)
}

func TestToEnum_UnknownType(t *testing.T) {
	type retryPolicy int

	_, err := enum.ToEnum[retryPolicy]("never")
	require.ErrorContains(t, err, "not found enum type")
	require.Empty(t, enum.ToString(retryPolicy(1)))
}

func TestNew_SharedAcrossValuesOfSameType(t *testing.T) {
	type chainName string

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			enum.New(chainName(fmt.Sprintf("chain-%d", i)), fmt.Sprintf("Chain%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		value, err := enum.ToEnum[chainName](fmt.Sprintf("Chain%d", i))
		require.NoError(t, err)
		require.Equal(t, chainName(fmt.Sprintf("chain-%d", i)), value)
	}

	require.Empty(t, enum.ToString(chainName("chain-10")))
}
