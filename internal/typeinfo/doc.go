// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

/*
Package typeinfo contains code relating to Go types and their meaning in SQL
expressions. As much as possible, reflection code is limited to this package.
It classifies Go types into semantic kinds, decides which kinds may be compared
with each other, detects absent (null) values, formats values as inline SQL
literals and reads the `db` tags of structs describing tables.
*/
package typeinfo
