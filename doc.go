/*
Copyright (c) 2013-2018 The btcsuite developers
Copyright (c) 2015-2016 The Decred developers
Copyright (c) 2013-2014 Conformal Systems LLC.
Use of this source code is governed by an ISC
license that can be found in the LICENSE file.

Viewd is a full node of the view ledger written in Go.

The default options are sane for most users. This means viewd will work 'out of
the box' for most users. However, there are also a wide variety of flags that
can be used to control it.

Usage:

	viewd [OPTIONS]

For an up-to-date help message:

	viewd --help

The long form of all option flags (except -C and --envfile) can be specified in
a configuration file that is automatically parsed when viewd starts up. By
default, the configuration file is located at ~/.viewd/viewd.conf on POSIX-style
operating systems and %LOCALAPPDATA%\viewd\viewd.conf on Windows. The -C
(--configfile) flag can be used to override this location.

Every option can also be set through a VIEWD_* environment variable, such as
VIEWD_DBTYPE=badger. Variables are read from the environment and from the env
file, which defaults to .env in the application directory and can be changed
with --envfile.

Validators pass their Schnorr private key with --validatorkey. A key can be
derived from a fresh BIP-39 mnemonic with the genvalidatorkey tool.
*/
package main
