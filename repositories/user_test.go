package repositories

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"whisperwall/domain"
	"whisperwall/errors"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	// Given a registered code
	created, err := repository.CreateUser("1234")
	req.NoError(err)

	// When it is looked up
	fetched, err := repository.GetUserByCode("1234")

	// Then the same identity is returned
	req.NoError(err)
	req.Equal(created.ID, fetched.ID)
	req.Equal(domain.Code("1234"), fetched.Code)
	req.True(created.CreatedAt.Equal(fetched.CreatedAt))
}

func TestUserRepository_Code_Is_Unique(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))
	_, err := repository.CreateUser("1234")
	req.NoError(err)

	_, err = repository.CreateUser("1234")

	req.ErrorIs(err, errors.ErrCodeTaken)
}

func TestUserRepository_Concurrent_Registrations(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repository.CreateUser("4242")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	// Then exactly one registration wins
	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		req.ErrorIs(err, errors.ErrCodeTaken)
	}
	req.Equal(1, succeeded)
}

func TestUserRepository_Unknown_Code(t *testing.T) {
	req := require.New(t)
	repository := NewUserRepository(openBadger(t))

	_, err := repository.GetUserByCode("9999")

	req.ErrorIs(err, errors.ErrUserNotFound)
}
