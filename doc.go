// Package fiber implements a cooperative concurrency runtime built around
// fibers: lightweight tasks that communicate exclusively through typed,
// named events delivered via per-fiber mailboxes.
//
// A [System] multiplexes fibers across a pool of worker schedulers (one per
// core by default) using work stealing. Fibers are spawned through a
// [Builder], suspend by awaiting events or promises, and may be pinned to a
// scheduler or run on their own dedicated OS thread.
//
// # Model
//
//   - [Path] identifies a fiber or an event, either by name or by a
//     process-unique identifier.
//   - [Event] binds a Path to a value type; it is the unit of inter-fiber
//     communication.
//   - [Mailbox] is the per-fiber MPSC queue of pending events.
//   - [Context] is the dispatch state of the running fiber: handler stacks,
//     Yield/Process, and Super chaining.
//   - [Promise] is a single-assignment result cell awaited by any number of
//     fibers or threads.
//   - [FiberRef] is a cheap handle whose only capabilities are Send and
//     Result.
//
// # Quick start
//
//	sys := fiber.New()
//	defer sys.Shutdown()
//
//	greet := fiber.NewEvent[string]("greet")
//
//	ref := sys.NewBuilder().Named("greeter").Run(func(c *fiber.Context) {
//		name := greet.Await(c)
//		fmt.Println("hello,", name)
//	})
//	greet.Send(ref, "world")
//
// Scheduling is strictly cooperative: a fiber runs until it yields, awaits,
// or returns. A non-cooperative fiber monopolizes its worker.
package fiber
