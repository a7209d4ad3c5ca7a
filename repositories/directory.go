package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
)

// Directory is the BadgerDB-backed user directory: the flat record
// store behind registration, credential checks, and the durable
// per-user message logs. The relay core never calls it; only the HTTP
// surface and services do.
type Directory struct {
	db  *badger.DB
	log *slog.Logger
}

func NewDirectory(db *badger.DB, log *slog.Logger) *Directory {
	return &Directory{db: db, log: log}
}

type storedUser struct {
	Phone        string `json:"phone"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

func userKey(phone domain.Identity) []byte {
	return []byte("user:" + string(phone))
}

// Create persists a new user record. Duplicate phones are rejected
// inside the same transaction that writes the record.
func (d *Directory) Create(phone domain.Identity, passwordHash string) error {
	record := storedUser{
		Phone:        string(phone),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return d.db.Update(func(txn *badger.Txn) error {
		key := userKey(phone)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
}

func (d *Directory) Find(phone domain.Identity) (contract.UserRecord, error) {
	var record storedUser
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(phone))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return contract.UserRecord{}, errors.ErrUserNotFound
		}
		return contract.UserRecord{}, err
	}
	return contract.UserRecord{
		Phone:        domain.Identity(record.Phone),
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}, nil
}

func (d *Directory) Exists(phone domain.Identity) (bool, error) {
	_, err := d.Find(phone)
	if err == nil {
		return true, nil
	}
	if err == errors.ErrUserNotFound {
		return false, nil
	}
	return false, err
}
