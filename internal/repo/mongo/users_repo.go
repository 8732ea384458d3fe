package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"userhub/internal/domain/user"
	"userhub/internal/observability"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
	ErrInvalidID        = errors.New("invalid user id")
)

const usersCollection = "users"

// userDoc is the persisted shape. The driver types stay inside this package;
// handlers only ever see user.User.
type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	FullName     string        `bson:"full_name"`
	Role         string        `bson:"role"`
	Status       string        `bson:"status"`
	LastLogin    *time.Time    `bson:"last_login"`
	CreatedAt    time.Time     `bson:"created_at"`
	UpdatedAt    time.Time     `bson:"updated_at"`
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Role:         d.Role,
		Status:       d.Status,
		LastLogin:    d.LastLogin,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type UsersRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

// NewUsersRepo wires the users collection and ensures the unique email index
// that backs the duplicate-email guarantee. prom may be nil.
func NewUsersRepo(ctx context.Context, db *mongo.Database, prom *observability.Prom) (*UsersRepo, error) {
	coll := db.Collection(usersCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	if err != nil {
		return nil, err
	}

	return &UsersRepo{coll: coll, prom: prom}, nil
}

// observe wraps one logical store operation with duration/error metrics.
func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

// Create persists a new user. The password hash must already be computed;
// this layer never sees a plaintext password.
func (r *UsersRepo) Create(ctx context.Context, email, passwordHash, fullName, role string) (user.User, error) {
	now := time.Now().UTC()

	doc := userDoc{
		Email:        user.NormalizeEmail(email),
		PasswordHash: passwordHash,
		FullName:     fullName,
		Role:         role,
		Status:       user.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var result *mongo.InsertOneResult

	err := r.observe("users.insert", func() error {
		var err error
		result, err = r.coll.InsertOne(ctx, doc)
		return err
	})

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	oid, ok := result.InsertedID.(bson.ObjectID)

	if !ok {
		return user.User{}, errors.New("unexpected inserted id type")
	}

	doc.ID = oid

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var doc userDoc

	err := r.observe("users.find_by_email", func() error {
		return r.coll.FindOne(ctx, bson.M{"email": user.NormalizeEmail(email)}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}

	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, ErrInvalidID
	}

	var doc userDoc

	err = r.observe("users.find_by_id", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, ErrUserNotFound
		}
		return user.User{}, err
	}

	return doc.toDomain(), nil
}

// UpdateProfile patches fullName and/or email. Nil fields are left untouched.
// A changed email re-hits the unique index, so collisions surface here.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, fullName, email *string) (user.User, error) {
	set := bson.M{}

	if fullName != nil {
		set["full_name"] = *fullName
	}

	if email != nil {
		set["email"] = user.NormalizeEmail(*email)
	}

	return r.updateFields(ctx, id, set)
}

// UpdatePassword swaps the stored hash. Nothing else is touched, so admin
// role/status toggles can never trigger a re-hash.
func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) (user.User, error) {
	return r.updateFields(ctx, id, bson.M{"password_hash": passwordHash})
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id, role string) (user.User, error) {
	return r.updateFields(ctx, id, bson.M{"role": role})
}

func (r *UsersRepo) UpdateStatus(ctx context.Context, id, status string) (user.User, error) {
	return r.updateFields(ctx, id, bson.M{"status": status})
}

func (r *UsersRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := bson.ObjectIDFromHex(id)

	if err != nil {
		return ErrInvalidID
	}

	return r.observe("users.set_last_login", func() error {
		_, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"last_login": at}})
		return err
	})
}

func (r *UsersRepo) updateFields(ctx context.Context, id string, set bson.M) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)

	if err != nil {
		return user.User{}, ErrInvalidID
	}

	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	set["updated_at"] = time.Now().UTC()

	var doc userDoc

	err = r.observe("users.update", func() error {
		return r.coll.FindOneAndUpdate(
			ctx,
			bson.M{"_id": oid},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&doc)
	})

	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return user.User{}, ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return user.User{}, ErrEmailAlreadyUsed
		default:
			return user.User{}, err
		}
	}

	return doc.toDomain(), nil
}

// List returns one page of users, newest first, optionally filtered by a
// case-insensitive substring match on email or full name, plus the total
// count for the unpaginated filter.
func (r *UsersRepo) List(ctx context.Context, page, limit int, search string) ([]user.User, int64, error) {
	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 10
	}

	filter := bson.M{}

	if search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"email": re},
			bson.M{"full_name": re},
		}
	}

	var (
		users []user.User
		total int64
	)

	err := r.observe("users.list", func() error {
		var err error
		total, err = r.coll.CountDocuments(ctx, filter)

		if err != nil {
			return err
		}

		findOpts := options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64((page - 1) * limit)).
			SetLimit(int64(limit))

		cursor, err := r.coll.Find(ctx, filter, findOpts)

		if err != nil {
			return err
		}

		defer cursor.Close(ctx)

		users = make([]user.User, 0, limit)

		for cursor.Next(ctx) {
			var doc userDoc

			if err := cursor.Decode(&doc); err != nil {
				return err
			}

			users = append(users, doc.toDomain())
		}

		return cursor.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
