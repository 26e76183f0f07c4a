// Package daemon runs the reconciliation loop that keeps the live monitor
// layout consistent with the declared configuration. It serializes the three
// trigger sources (startup, config file polling, hotplug events) into
// single-flight pipeline passes and delivers a best-effort desktop
// notification after each applied pass.
package daemon
