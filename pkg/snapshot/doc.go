// Package snapshot exports the committed host tree after every commit.
//
// An Exporter is a fiber.Observer. When a cycle commits it copies the
// host.Memory tree on the engine goroutine and hands the copy to a worker
// that writes it to a Store as JSON, so slow storage never stalls
// rendering. Older snapshots beyond the retention limit are pruned.
//
// Two stores are provided: FileStore writes to a local directory and
// S3Store writes to an S3 bucket through aws-sdk-go-v2.
//
//	store, _ := snapshot.NewFileStore(".fibertree/snapshots")
//	exp := snapshot.NewExporter(store, remote.Memory, snapshot.WithKeep(20))
//	exp.Start(ctx)
//	defer exp.Close()
//	engine := fiber.NewEngine(remote, loop, fiber.WithObserver(exp))
package snapshot
