// Package notifier turns vacancies into Telegram messages and delivers
// them: periodic broadcasts to every active subscriber and one-time
// catch-up digests for fresh subscribers. Sends are sequential and paced;
// a single unreachable recipient never aborts the fan-out.
package notifier
