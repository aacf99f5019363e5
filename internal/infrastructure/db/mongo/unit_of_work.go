package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// UnitOfWork runs a callback inside a MongoDB multi-document transaction.
// Transactions need a replica set; with transactions disabled the callback
// runs directly.
type UnitOfWork struct {
	client       *mongo.Client
	transactions bool
}

func NewUnitOfWork(client *mongo.Client, transactions bool) *UnitOfWork {
	return &UnitOfWork{client: client, transactions: transactions}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !u.transactions {
		return fn(ctx)
	}

	sess, err := u.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
