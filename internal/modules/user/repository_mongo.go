package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const userCollection = "users"

type mongoRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewMongoRepository creates a user repository backed by MongoDB and ensures its indexes.
// Email and mobile are unique among documents that carry them.
func NewMongoRepository(ctx context.Context, logger *slog.Logger, db *mongo.Database) (Repository, error) {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("users_email_key"),
		},
		{
			Keys:    bson.D{{Key: "mobile", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("users_mobile_key"),
		},
		{
			Keys:    bson.D{{Key: "resetToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Error("failed to create user indexes", "error", err)
		return nil, fmt.Errorf("create user indexes: %w", err)
	}

	return &mongoRepository{db: db, logger: logger}, nil
}

func (r *mongoRepository) users() *mongo.Collection {
	return r.db.Collection(userCollection)
}

func (r *mongoRepository) Create(ctx context.Context, u *User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	if _, err := r.users().InsertOne(ctx, u); err != nil {
		return mapDuplicateKey(err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (r *mongoRepository) FindByMobile(ctx context.Context, mobile string) (*User, error) {
	return r.findOne(ctx, bson.M{"mobile": mobile})
}

func (r *mongoRepository) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now()

	set := bson.M{"name": u.Name, "updatedAt": u.UpdatedAt}
	unset := bson.M{}
	if u.Email != nil {
		set["email"] = *u.Email
	} else {
		unset["email"] = ""
	}
	if u.Mobile != nil {
		set["mobile"] = *u.Mobile
	} else {
		unset["mobile"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.users().UpdateOne(ctx, bson.M{"_id": u.ID}, update)
	if err != nil {
		return mapDuplicateKey(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertMobileOTP writes the OTP fields onto the document owning the mobile,
// inserting candidate's fields only when the document is new. A document inside
// its cooldown window does not match the filter, so the upsert attempts an insert
// and the unique mobile index rejects it.
func (r *mongoRepository) UpsertMobileOTP(ctx context.Context, candidate *User, ch OTPChallenge) (*User, error) {
	now := time.Now()
	filter := bson.M{
		"mobile": candidate.MobileValue(),
		"$or": bson.A{
			bson.M{"otpSentAt": nil},
			bson.M{"otpSentAt": bson.M{"$lte": ch.NotSentSince}},
		},
	}
	update := bson.M{
		"$set": bson.M{
			"otp":       ch.Digest,
			"otpExpiry": ch.Expiry,
			"otpSentAt": ch.SentAt,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"_id":          candidate.ID,
			"name":         candidate.Name,
			"authMethod":   candidate.AuthMethod,
			"isVerified":   false,
			"isAdmin":      false,
			"tokenVersion": 0,
			"createdAt":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var u User
	err := r.users().FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
	if mongo.IsDuplicateKeyError(err) {
		// Either a concurrent first request inserted the document, or the existing
		// one is cooling down. Retry once; a second collision means the latter.
		err = r.users().FindOneAndUpdate(ctx, filter, update, opts).Decode(&u)
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrResendTooSoon.WithCause(err)
		}
	}
	if err != nil {
		return nil, mapDuplicateKey(err)
	}
	return &u, nil
}

func (r *mongoRepository) ClearOTPCooldown(ctx context.Context, userID string) error {
	res, err := r.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$unset": bson.M{"otpSentAt": ""}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) CompleteOTPLogin(ctx context.Context, userID, otpDigest, name string) (*User, error) {
	set := bson.M{"isVerified": true, "updatedAt": time.Now()}
	if name != "" {
		set["name"] = bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$name", PlaceholderName}},
			bson.M{"$literal": name},
			"$name",
		}}
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: set}},
		{{Key: "$unset", Value: bson.A{"otp", "otpExpiry"}}},
	}

	var u User
	err := r.users().FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "otp": otpDigest},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}

func (r *mongoRepository) SetPasswordResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	res, err := r.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"resetToken":       tokenHash,
		"resetTokenExpiry": expiry,
		"updatedAt":        time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) FindByPasswordResetToken(ctx context.Context, tokenHash string) (*User, error) {
	return r.findOne(ctx, bson.M{"resetToken": tokenHash})
}

func (r *mongoRepository) UpdatePassword(ctx context.Context, userID, newPasswordHash string) error {
	res, err := r.users().UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		"$set":   bson.M{"passwordHash": newPasswordHash, "updatedAt": time.Now()},
		"$unset": bson.M{"resetToken": "", "resetTokenExpiry": ""},
		"$inc":   bson.M{"tokenVersion": 1},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) (*User, error) {
	var u User
	err := r.users().FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"isAdmin": isAdmin, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	if err := r.users().FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound.WithCause(err)
		}
		return nil, err
	}
	return &u, nil
}

func mapDuplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "mobile"):
		return ErrMobileExists.WithCause(err)
	case strings.Contains(msg, "email"):
		return ErrEmailExists.WithCause(err)
	default:
		return err
	}
}
