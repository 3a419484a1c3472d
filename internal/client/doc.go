// Package client is the facade application test code talks to. It bundles
// a Record Store, auth, storage and realtime emulators into one value with
// the shape of the hosted backend client:
//
//	c := client.New()
//	res := c.From("trips").Eq("status", "open").Order("created_at", false).Execute(ctx)
//	user := c.Auth().GetUser(ctx).User
//	c.Storage().From("avatars").Upload(ctx, "u1.png", data, storage.UploadOptions{})
//	c.Channel("trips").On("postgres_changes", filter, cb).Subscribe(nil)
//
// Each New call returns an independent bundle, so parallel tests never
// share state. Reset clears every component of one bundle in place.
package client
