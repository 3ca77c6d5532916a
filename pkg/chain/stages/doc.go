// Package stages contains the interceptor stages the proxy assembles into
// its chain.
//
// The stages and their required relative order in the response phase are:
// credential before usage before failover — failover decides on retries from
// post-usage-accounted state. The rule gate runs first in the request phase
// so blocked exchanges never select an account or record usage. The monitor
// stage is a pure observer and may sit anywhere.
package stages
