package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/dulceria/api/internal/domain"
	pfirestore "github.com/dulceria/api/internal/platform/firestore"
	"github.com/dulceria/api/internal/repositories"
)

const userCollection = "users"

type userDocument struct {
	FirebaseUID string    `firestore:"firebaseUid"`
	Name        string    `firestore:"name"`
	Lastname    string    `firestore:"lastname"`
	Email       string    `firestore:"email"`
	Active      bool      `firestore:"active"`
	Admin       bool      `firestore:"admin"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// UserRepository persists application user profiles within Firestore.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

var _ repositories.UserRepository = (*UserRepository)(nil)

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil)
	return &UserRepository{base: base}, nil
}

func (r *UserRepository) Insert(ctx context.Context, profile domain.UserProfile) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(profile.ID) == "" {
		return errors.New("user repository: user id is required")
	}

	_, err := r.base.Set(ctx, profile.ID, userDocument{
		FirebaseUID: strings.TrimSpace(profile.FirebaseUID),
		Name:        strings.TrimSpace(profile.Name),
		Lastname:    strings.TrimSpace(profile.Lastname),
		Email:       strings.ToLower(strings.TrimSpace(profile.Email)),
		Active:      profile.Active,
		Admin:       profile.Admin,
		CreatedAt:   profile.CreatedAt.UTC(),
		UpdatedAt:   profile.UpdatedAt.UTC(),
	})
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.UserProfile{}, errors.New("user repository: user id is required")
	}

	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return toDomainProfile(doc), nil
}

func (r *UserRepository) FindByFirebaseUID(ctx context.Context, firebaseUID string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	firebaseUID = strings.TrimSpace(firebaseUID)
	if firebaseUID == "" {
		return domain.UserProfile{}, errors.New("user repository: firebase uid is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("firebaseUid", "==", firebaseUID).Limit(1)
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	if len(docs) == 0 {
		return domain.UserProfile{}, queryNotFound("firestore: users.find_by_uid", "no user with firebase uid")
	}
	return toDomainProfile(docs[0]), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.UserProfile{}, errors.New("user repository: email is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("email", "==", email).Limit(1)
	})
	if err != nil {
		return domain.UserProfile{}, err
	}
	if len(docs) == 0 {
		return domain.UserProfile{}, queryNotFound("firestore: users.find_by_email", "no user with email")
	}
	return toDomainProfile(docs[0]), nil
}

// FindByIDs loads the given users, skipping ids that do not resolve.
func (r *UserRepository) FindByIDs(ctx context.Context, userIDs []string) (map[string]domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("user repository not initialised")
	}

	out := make(map[string]domain.UserProfile, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		doc, err := r.base.Get(ctx, userID)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return nil, err
		}
		out[userID] = toDomainProfile(doc)
	}
	return out, nil
}

func toDomainProfile(doc pfirestore.Document[userDocument]) domain.UserProfile {
	profile := domain.UserProfile{
		ID:          doc.ID,
		FirebaseUID: doc.Data.FirebaseUID,
		Name:        doc.Data.Name,
		Lastname:    doc.Data.Lastname,
		Email:       doc.Data.Email,
		Active:      doc.Data.Active,
		Admin:       doc.Data.Admin,
		CreatedAt:   doc.Data.CreatedAt,
		UpdatedAt:   doc.Data.UpdatedAt,
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = doc.CreateTime
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = doc.UpdateTime
	}
	return profile
}
