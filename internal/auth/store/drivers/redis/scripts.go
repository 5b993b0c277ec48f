package redis

import "github.com/redis/go-redis/v9"

// Every mutation runs as one script, so concurrent logins and revocations
// serialize inside Redis and never fail on contention. Keys derived from a
// stored value (the previous hash, the record id) are built from the
// namespace passed in ARGV[1].

// removeRecordLua drops the principal's record and its index entries.
// Returns 1 when a record existed.
const removeRecordLua = `
local function remove_record(ns, expiry_key, principal_id)
  local pkey = ns .. ":principal:" .. principal_id
  local hash = redis.call("GET", pkey)
  redis.call("ZREM", expiry_key, principal_id)
  if not hash then
    return 0
  end
  local hkey = ns .. ":hash:" .. hash
  local id = redis.call("HGET", hkey, "id")
  redis.call("DEL", hkey, pkey)
  if id then
    redis.call("DEL", ns .. ":id:" .. id)
  end
  return 1
end
`

// KEYS: principal, new hash, new id, expiry
// ARGV: ns, id, principal_id, token_hash, expires_at, created_at
const upsertScript = removeRecordLua + `
remove_record(ARGV[1], KEYS[4], ARGV[3])
redis.call("HSET", KEYS[2],
  "id", ARGV[2],
  "principal_id", ARGV[3],
  "token_hash", ARGV[4],
  "expires_at", ARGV[5],
  "created_at", ARGV[6])
redis.call("SET", KEYS[1], ARGV[4])
redis.call("SET", KEYS[3], ARGV[3])
redis.call("ZADD", KEYS[4], ARGV[5], ARGV[3])
return 1
`

// The principal's current record is removed only when it still carries the
// requested id; a stale id just loses its pointer.
//
// KEYS: id, expiry
// ARGV: ns, id
const deleteByIDScript = removeRecordLua + `
local principal_id = redis.call("GET", KEYS[1])
if not principal_id then
  return 0
end
local hash = redis.call("GET", ARGV[1] .. ":principal:" .. principal_id)
if hash and redis.call("HGET", ARGV[1] .. ":hash:" .. hash, "id") == ARGV[2] then
  return remove_record(ARGV[1], KEYS[2], principal_id)
end
redis.call("DEL", KEYS[1])
return 0
`

// KEYS: expiry
// ARGV: ns, principal_id
const deleteByPrincipalScript = removeRecordLua + `
return remove_record(ARGV[1], KEYS[1], ARGV[2])
`

// The range and the removals share one script, so a login landing mid-sweep
// keeps its fresh record.
//
// KEYS: expiry
// ARGV: ns, exclusive upper bound in ms
const deleteExpiredScript = removeRecordLua + `
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", "(" .. ARGV[2])
local n = 0
for _, principal_id in ipairs(ids) do
  n = n + remove_record(ARGV[1], KEYS[1], principal_id)
end
return n
`

var (
	upsertLua            = redis.NewScript(upsertScript)
	deleteByIDLua        = redis.NewScript(deleteByIDScript)
	deleteByPrincipalLua = redis.NewScript(deleteByPrincipalScript)
	deleteExpiredLua     = redis.NewScript(deleteExpiredScript)
)
