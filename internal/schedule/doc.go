// Package schedule interprets schedule scripts and turns them into job lists.
//
// A schedule is HCL native syntax read statement by statement through a
// directive table: built-in directives (set, env, job_type, every, at and
// the frequency shorthands) come first, then job kinds registered with
// job_type, then script variables. Anything else is an
// UnknownDirectiveError.
//
// Scheduling blocks push an option frame on a scope stack and release it
// when the block ends, whichever way it ends. Job kinds invoked inside a
// block build a job from the frame, the script variables and the call-site
// options, in that order of precedence.
//
// The resulting JobList renders unit files and the install, update and
// clear scripts for the jobs it holds.
package schedule
