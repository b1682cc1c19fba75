package database

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createSignalsTableSQL = `
CREATE TABLE IF NOT EXISTS signals (
    name text PRIMARY KEY,
    description text NOT NULL DEFAULT ''
);`

const createSamplesTableSQL = `
CREATE TABLE IF NOT EXISTS signal_samples (
    time timestamptz NOT NULL,
    name text NOT NULL REFERENCES signals (name),
    value double precision NULL,
    vector bytea NULL
);`

const createHypertableSQL = `SELECT create_hypertable('signal_samples', 'time', if_not_exists => true);`

const createSamplesIndexSQL = `CREATE INDEX IF NOT EXISTS signal_samples_name_time_idx ON signal_samples (name, time);`
