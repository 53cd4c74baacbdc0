package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/servicedesk-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrReferenced indicates a delete was blocked because other rows point at the record.
var ErrReferenced = errors.New("record is still referenced")

// ErrInvalidReference indicates a write pointed at a row that does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")

// UserStore captures credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByResetToken(ctx context.Context, token string) (models.User, error)
	ListUsers(ctx context.Context, page models.Page) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	SetResetToken(ctx context.Context, userID int64, token string, expiry time.Time) error
	SetPassword(ctx context.Context, userID int64, passwordHash string) error
	DeleteUser(ctx context.Context, id int64) error
}

// PermissionStore persists per user and module grants.
type PermissionStore interface {
	FindPermission(ctx context.Context, userID int64, module models.Module) (models.Permission, error)
	ListPermissions(ctx context.Context, userID int64) ([]models.Permission, error)
	ListAllPermissions(ctx context.Context) ([]models.Permission, error)
	EnsureDefaultPermissions(ctx context.Context, userID int64, modules []models.Module) error
	UpsertPermission(ctx context.Context, perm models.Permission) (models.Permission, error)
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Query string
	models.Page
}

// ClientStore persists clients.
type ClientStore interface {
	CreateClient(ctx context.Context, c models.Client) (models.Client, error)
	GetClient(ctx context.Context, id int64) (models.Client, error)
	ListClients(ctx context.Context, f ClientFilter) ([]models.Client, error)
	UpdateClient(ctx context.Context, c models.Client) (models.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}

// QuoteFilter narrows quote listings.
type QuoteFilter struct {
	ClientID int64
	models.Page
}

// QuoteStore persists quotes.
type QuoteStore interface {
	CreateQuote(ctx context.Context, q models.Quote) (models.Quote, error)
	GetQuote(ctx context.Context, id int64) (models.Quote, error)
	ListQuotes(ctx context.Context, f QuoteFilter) ([]models.Quote, error)
	UpdateQuote(ctx context.Context, q models.Quote) (models.Quote, error)
	DeleteQuote(ctx context.Context, id int64) error
}

// ServiceOrderFilter narrows service order listings.
type ServiceOrderFilter struct {
	ClientID int64
	Status   string
	models.Page
}

// ServiceOrderStore persists service orders.
type ServiceOrderStore interface {
	CreateServiceOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error)
	GetServiceOrder(ctx context.Context, id int64) (models.ServiceOrder, error)
	ListServiceOrders(ctx context.Context, f ServiceOrderFilter) ([]models.ServiceOrder, error)
	UpdateServiceOrder(ctx context.Context, o models.ServiceOrder) (models.ServiceOrder, error)
	DeleteServiceOrder(ctx context.Context, id int64) error
}

// VisitFilter narrows visit listings by schedule window.
type VisitFilter struct {
	From *time.Time
	To   *time.Time
	models.Page
}

// VisitStore persists scheduled visits.
type VisitStore interface {
	CreateVisit(ctx context.Context, v models.Visit) (models.Visit, error)
	GetVisit(ctx context.Context, id int64) (models.Visit, error)
	ListVisits(ctx context.Context, f VisitFilter) ([]models.Visit, error)
	UpdateVisit(ctx context.Context, v models.Visit) (models.Visit, error)
	DeleteVisit(ctx context.Context, id int64) error
}

// ChatStore persists chat messages.
type ChatStore interface {
	CreateMessage(ctx context.Context, m models.ChatMessage) (models.ChatMessage, error)
	ListMessages(ctx context.Context, page models.Page) ([]models.ChatMessage, error)
	DeleteMessage(ctx context.Context, id int64) error
}

// ActivityFilter narrows activity log listings.
type ActivityFilter struct {
	UserID int64
	models.Page
}

// ActivityStore persists the activity log.
type ActivityStore interface {
	RecordActivity(ctx context.Context, e models.ActivityEntry) error
	ListActivity(ctx context.Context, f ActivityFilter) ([]models.ActivityEntry, error)
}

// Store groups every persistence concern the server needs.
type Store interface {
	UserStore
	PermissionStore
	ClientStore
	QuoteStore
	ServiceOrderStore
	VisitStore
	ChatStore
	ActivityStore
}
