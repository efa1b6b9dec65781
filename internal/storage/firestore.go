package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/beefriend/beefriend-api/internal/models"
)

const (
	usersCollection   = "users"
	emailsCollection  = "emails"
	lineIDsCollection = "lineIds"

	// array-contains-any accepts a bounded number of values per query.
	firestoreAnyLimit = 10
)

type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(projectID string) (*FirestoreStore, error) {
	ctx := context.Background()
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %v", err)
	}

	return &FirestoreStore{
		client: client,
	}, nil
}

func (fs *FirestoreStore) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreStore) users() *firestore.CollectionRef {
	return fs.client.Collection(usersCollection)
}

// emailRef points at the document that reserves an email address.
func (fs *FirestoreStore) emailRef(email string) *firestore.DocumentRef {
	return fs.client.Collection(emailsCollection).Doc(url.PathEscape(email))
}

// lineRef points at the document that reserves a LINE user ID.
func (fs *FirestoreStore) lineRef(lineUserID string) *firestore.DocumentRef {
	return fs.client.Collection(lineIDsCollection).Doc(url.PathEscape(lineUserID))
}

func (fs *FirestoreStore) CreateUser(ctx context.Context, user *models.User) error {
	stored := user.Clone()
	stored.Email = normalizeEmail(user.Email)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.Version = 0
	prepare(stored, stored.CreatedAt)

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		emailRef := fs.emailRef(stored.Email)
		_, err := tx.Get(emailRef)
		if err == nil {
			return models.ErrConflict
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(emailRef, map[string]interface{}{"userId": stored.ID}); err != nil {
			return err
		}
		return tx.Create(fs.users().Doc(stored.ID), stored)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return models.ErrConflict
		}
		return fs.wrap("failed to create user", err)
	}

	*user = *stored
	return nil
}

func (fs *FirestoreStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, models.ErrNotFound
	}

	doc, err := fs.users().Doc(id).Get(ctx)
	if err != nil {
		return nil, fs.wrap("failed to get user", err)
	}
	return decodeUser(doc)
}

func (fs *FirestoreStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return fs.first(ctx, fs.users().Where("email", "==", normalizeEmail(email)).Limit(1))
}

func (fs *FirestoreStore) GetUserByLineID(ctx context.Context, lineUserID string) (*models.User, error) {
	if lineUserID == "" {
		return nil, models.ErrNotFound
	}
	return fs.first(ctx, fs.users().Where("lineUserId", "==", lineUserID).Limit(1))
}

func (fs *FirestoreStore) UpdateUser(ctx context.Context, id string, fn MutateFunc) (*models.User, error) {
	if id == "" {
		return nil, models.ErrNotFound
	}
	ref := fs.users().Doc(id)

	var (
		result *models.User
		fnErr  error
	)
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		fnErr = nil

		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		current, err := decodeUser(doc)
		if err != nil {
			return err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			fnErr = err
			return err
		}
		next.ID = current.ID
		next.Email = current.Email
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version
		prepare(next, time.Now())

		if next.LineUserID != current.LineUserID {
			if err := fs.relinkLine(tx, id, current.LineUserID, next.LineUserID); err != nil {
				if errors.Is(err, ErrLineIDTaken) {
					fnErr = err
				}
				return err
			}
		}

		result = next
		return tx.Set(ref, next)
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, fs.wrap("failed to update user", err)
	}

	return result, nil
}

func (fs *FirestoreStore) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return models.ErrNotFound
	}
	ref := fs.users().Doc(id)

	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		user, err := decodeUser(doc)
		if err != nil {
			return err
		}

		if err := tx.Delete(fs.emailRef(user.Email)); err != nil {
			return err
		}
		if user.LineUserID != "" {
			if err := tx.Delete(fs.lineRef(user.LineUserID)); err != nil {
				return err
			}
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return fs.wrap("failed to delete user", err)
	}

	return nil
}

// relinkLine moves the LINE ID reservation of user id from oldID to newID.
// It reads before it writes, as transactions require.
func (fs *FirestoreStore) relinkLine(tx *firestore.Transaction, id, oldID, newID string) error {
	if newID != "" {
		doc, err := tx.Get(fs.lineRef(newID))
		switch {
		case err == nil:
			if owner, _ := doc.Data()["userId"].(string); owner != id {
				return ErrLineIDTaken
			}
		case status.Code(err) != codes.NotFound:
			return err
		}
	}

	if oldID != "" {
		if err := tx.Delete(fs.lineRef(oldID)); err != nil {
			return err
		}
	}
	if newID != "" {
		return tx.Set(fs.lineRef(newID), map[string]interface{}{"userId": id})
	}
	return nil
}

func (fs *FirestoreStore) ListUsers(ctx context.Context, excludeID string) ([]*models.User, error) {
	iter := fs.users().
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)

	users, err := collect(iter)
	if err != nil {
		return nil, fs.wrap("failed to iterate users", err)
	}
	return exclude(users, excludeID), nil
}

func (fs *FirestoreStore) FindUsersByGoalNames(ctx context.Context, excludeID string, names []string) ([]*models.User, error) {
	names = dedupe(names)
	found := make(map[string]*models.User)

	for start := 0; start < len(names); start += firestoreAnyLimit {
		end := start + firestoreAnyLimit
		if end > len(names) {
			end = len(names)
		}

		iter := fs.users().
			Where("goalNames", "array-contains-any", names[start:end]).
			Documents(ctx)

		users, err := collect(iter)
		if err != nil {
			return nil, fs.wrap("failed to iterate matching users", err)
		}
		for _, u := range users {
			found[u.ID] = u
		}
	}

	users := make([]*models.User, 0, len(found))
	for _, u := range found {
		users = append(users, u)
	}
	sortByCreated(users)
	return exclude(users, excludeID), nil
}

func (fs *FirestoreStore) first(ctx context.Context, q firestore.Query) (*models.User, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fs.wrap("failed to query user", err)
	}
	return decodeUser(doc)
}

// wrap maps Firestore failures onto the error kinds. Kinds raised inside a
// transaction pass through unchanged.
func (fs *FirestoreStore) wrap(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrConflict):
		return err
	case status.Code(err) == codes.NotFound:
		return models.ErrNotFound
	default:
		return models.DataSourceError(op, err)
	}
}

func decodeUser(doc *firestore.DocumentSnapshot) (*models.User, error) {
	var user models.User
	if err := doc.DataTo(&user); err != nil {
		return nil, models.DataSourceError("failed to unmarshal user", err)
	}
	return &user, nil
}

func collect(iter *firestore.DocumentIterator) ([]*models.User, error) {
	defer iter.Stop()

	var users []*models.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		user, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func exclude(users []*models.User, id string) []*models.User {
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}

func sortByCreated(users []*models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
