// Package service turns caller operations on groups, flows and meters into
// correlated device exchanges and folds acknowledged outcomes back into the
// session's registries and the mirror.
//
// # Flow
//
//	Dispatcher.Dispatch
//	  -> SelectPath(capabilities)        message path or conversion path
//	  -> OperationService.Handle         reserve, build, transmit
//	  ... reply resolves the pool slot ...
//	  -> Reconciler.Reconcile            registry + mirror, success only
//	  -> caller's *correlation.Future[Result]
//
// Expected failures (capacity, timeout, rejection, policy conflict, lost
// session) arrive in Result.Err. Dispatch only returns an error for a
// malformed request.
package service
