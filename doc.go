// Package seatsanalyzer binds a seats analyzer implementation module and
// drives its detection and classification pipeline.
//
// An implementation is reached through a Module, either a native shared
// library (package native) or the pure Go reference module (package
// reference). Link resolves the module's entry points once into an immutable
// Table. Everything else hangs off that table:
//
//	tbl, err := seatsanalyzer.Link(mod)
//	sess, err := tbl.Initialize("sdk/config.yaml", &seatsanalyzer.Config{NumThreads: 1})
//	defer sess.Close()
//
//	img, err := tbl.ReadImage("car.png")
//	defer tbl.FreeImage(img)
//
//	dets, err := sess.Detect(img, nil)
//	for _, d := range dets.Detections() {
//		if d.Label == seatsanalyzer.LabelWindow {
//			res, err := sess.Classify(img, d.Position, d.Label)
//			...
//		}
//	}
//	dets.Release()
//
// # Ownership
//
// Detection results belong to the caller until Release, which may be called
// once. Images belong to the table that allocated them and must be freed
// through that table. A Session is closed exactly once; afterwards every
// method returns ErrSessionClosed.
//
// # Concurrency
//
// A Table may be shared by any number of goroutines. A Session may not: it
// serves one call at a time and returns ErrSessionBusy to a caller that races
// another. Create one session per worker for parallel pipelines.
package seatsanalyzer
