// Package dtest provides test doubles for the dippy synchronization core.
//
// The doubles share an optional event Log so tests can assert the relative
// order of model updates and outbound controls:
//
//	log := dtest.NewLog()
//	ch := dtest.NewChannel().WithLog(log)
//	m := dtest.NewModel("/games/1").WithLog(log)
//
//	reg.Subscribe(m)
//	dtest.ExpectLog(t, log, "apply /games/1", "sync /games/1", "send subscribe /games/1")
package dtest
