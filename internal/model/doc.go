// Package model is the model-level routing API applications use.
//
// A Model decorates a ConnectionManager (the host's own connection
// management for one model) with replica routing. Unreplicated models pass
// every call straight through to the base; replicated ones route through a
// shared routing.Handler:
//
//	users := model.New("users", model.NewPoolManager(database.Open, logger), handler)
//	if err := users.EstablishConnection(ctx, cfg.Models["users"]); err != nil {
//		return err
//	}
//
//	// Reads inside the callback go to slave1.
//	err := users.Using(ctx, "slave1", func(ctx context.Context) error {
//		return users.Connection().QueryRow(ctx, "SELECT count(*) FROM users").Scan(&n)
//	})
//
//	// Row locks always go to master, even inside Using.
//	err = users.Lock(ctx, model.ForUpdate{Table: "users", ID: id})
package model
