package client

import (
	"context"

	"github.com/workgroup/workgroup-client/internal/client/models"
)

// Client is the remote identity service. Implementations never retry and
// never normalize the fields they return.
type Client interface {
	Authenticate(ctx context.Context, email, password string) (*models.Session, error)
	FetchByID(ctx context.Context, id string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, name, email, password string) (*models.Session, error)
	ListUsers(ctx context.Context) ([]*models.Session, error)
	Close() error
}
