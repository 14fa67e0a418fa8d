// Package responses holds the agent's reply templates. Categories with
// several variants pick one at random so repeated interactions don't
// read like a script. Templates interpolate {name}-style variables.
package responses

import (
	"math/rand"
	"strings"
)

var catalog = map[string]map[string][]string{
	"greeting": {
		"default": {
			"Hi! I'm Jean, your WantokJobs assistant. 😊 How can I help you today?",
			"Hello! I'm Jean — I can help you find jobs, update your profile, apply to positions, and more. Tokim mi!",
			"Hey there! Jean here. Whether you're looking for wok or hiring, I'm here to help. What's on your mind?",
			"Gude! Mi Jean bilong WantokJobs. 😊 I can help with jobs, profiles, applications — you name it. What do you need?",
		},
		"returning": {
			"Welcome back, {name}! What can I help you with today?",
			"Hey {name}! Good to see you again. 😊 What do you need?",
			"Hey {name}! Mi amamas long lukim yu gen. What's happening?",
		},
	},
	"farewell": {
		"default": {
			"See you later! Good luck with your job search. 🤞",
			"Bye! Don't hesitate to come back — mi stap hia olotaim. 😊",
			"Lukim yu! All the best. 🙌",
			"Take care! Remember, your dream job might be just one application away. 💪",
			"Go gut! Wishing you gutpela taim ahead. 🌟",
		},
	},
	"needs_login": {
		"default": {
			"You'll need to log in first for that. You can [log in here](/login) or [create an account](/register) — it only takes a minute! Em i isi tasol. 😊",
			"I'd love to help with that! Just need you to [sign in](/login) first. Don't have an account? [Register here](/register) — it's free for job seekers! Olgeta fri!",
			"To do that, you'll need an account — [log in](/login) or [sign up](/register) (takes 30 seconds, no tricks!). Then bai mi ken helpim yu stret. 💪",
		},
	},
	"needs_role": {
		"jobseeker": {"That feature is for jobseekers. You're logged in as an employer — but no worries! Want me to help with employer features instead? Like posting jobs or reviewing applicants? 😊"},
		"employer":  {"That's an employer feature. You're logged in as a jobseeker — em i orait! Want me to help you find jobs or update your profile instead?"},
	},
	"feature_disabled": {
		"auto_apply":      {"Auto-apply is currently turned off by the admin. Sori tru! You can still apply to jobs manually — want me to help you find some? 🔍"},
		"linkedin_import": {"LinkedIn import is currently unavailable. Sori! But no worries — I can help you fill in your profile through our chat! Just as good, promise. 😊"},
		"jean_disabled":   {"Mi sori — I'm currently offline for maintenance. Please try again later or contact support@wantokjobs.com 🙏"},
	},
	"profile": {
		"start_employer":   {"Let's set up your company profile! I'll walk you through it — won't take long."},
		"already_complete": {"Your profile looks pretty complete! Gutpela tru! Here's what you have:\n\n{summary}\n\nWant to update anything specific?"},
		"missing_fields":   {"Your profile is {percent}% complete. You're missing: {fields}.\n\nLet me help fill in the gaps — bai mi askim yu liklik. Ready?"},
		"saved": {
			"✅ Profile updated! Nau em i lukim gutpela. Here's your summary:\n\n{summary}",
			"✅ Done! Your profile is looking sharp now:\n\n{summary}",
		},
	},
	"resume": {
		"start":        {"Let's build your CV! 📄 I'll use your profile info as a starting point and fill in any gaps.\n\nDo you want to add work history first? Tokim mi wanem wok yu bin mekim."},
		"from_profile": {"I've built a CV from your existing profile — here's the preview:\n\n{preview}\n\n📄 [Download your CV](/api/jobseeker/resume/download)\n\nNau yu redi long aplai!"},
	},
	"search": {
		"results": {"Found {count} jobs matching your search:\n\n{jobs}\n\nWant more details on any of these? Or say 'more' for the next page. Tokim mi!"},
		"no_results": {
			"Hmm, nothing came up for that search — sori! 😕 Try:\n• Broader keywords (e.g. 'driver' instead of 'heavy vehicle operator')\n• Different location\n• Fewer filters\n\nOr just tell me what kind of wok you want and bai mi digim moa!",
			"No matches for that one — but don't worry! 😕 PNG's job market moves fast. Try:\n• Different keywords\n• A broader location (e.g. just 'NCD' instead of a specific suburb)\n• Check back tomorrow — new jobs come in every day!\n\nMi stap hia — tokim mi wanem yu laik mekim.",
		},
		"suggestions": {"Here are some popular searches across PNG — from the Highlands to the Islands:\n\n• ⛏️ Mining jobs — Lihir, Porgera, Ok Tedi, Wafi-Golpu\n• 💻 IT & tech jobs in Port Moresby\n• 🏗️ Construction & trades in Lae\n• 🏥 Healthcare — hospitals, clinics, rural health\n• 🚛 Driving & logistics across PNG\n• 📊 Finance & accounting\n• 🌴 Agriculture & fisheries\n• 🏨 Hospitality & tourism\n\nWhat interests you? Tokim mi na bai mi painim wok bilong yu!"},
	},
	"apply": {
		"confirm": {"Ready to apply for **{title}** at **{company}**?\n\nI'll use your profile as your application.\n\n[Apply Now] [View Job First]"},
		"success": {
			"✅ Application submitted for **{title}** at **{company}**! 🎉\n\nI'll let you know when the employer responds. You can check your applications anytime — just ask me!",
			"✅ You've applied for **{title}** at **{company}**! Gutpela wok! 🎉\n\nThe employer will review your application. I'll keep you posted!",
			"✅ Done — your application for **{title}** at **{company}** is in! 🎉\n\nNow it's in the employer's hands. Mi bai lukluk long moa wok bilong yu!",
		},
		"already_applied": {
			"You've already applied for this one! Em i go pinis. 😊 Want to check your application status or find similar jobs?",
			"Looks like you already sent your application for this one! No need to apply twice. 😊 Want me to find similar positions?",
		},
		"no_profile": {"Before applying, let's make sure your profile is looking sharp — employers see it when you apply. First impressions matter, especially in PNG!\n\nWant me to help you update it? Em i kwik tasol — 2 minutes max."},
	},
	"auto_apply": {
		"setup":     {"Let's set up auto-apply! 🤖 I'll apply to matching jobs for you automatically — while you sleep, mi wok yet!"},
		"activated": {"✅ Auto-apply is active! Mi bai wok long aplai long ol wok we i matc (score ≥ {min_score}%) and send you a daily summary.\n\nSay 'stop auto-apply' anytime to turn it off. Yumi wok bung! 💪"},
		"stopped":   {"Auto-apply has been paused. Your rules are saved — say 'start auto-apply' to resume anytime. Mi stap redi!"},
		"summary":   {"📊 Auto-apply summary:\n• Active rules: {count}\n• Applications today: {today}\n\n{rules}"},
	},
	"post_job": {
		"start": {"Let's create a job listing! 📋 I'll walk you through it step by step."},
		"posted": {
			"✅ Job posted! **{title}** is now live. Gutpela! 🎉\n\nApplicants will appear in your dashboard. Want me to set up notifications?",
			"✅ **{title}** is live! 🎉 Ol manmeri bai lukim nau. I'll notify you when people start applying.",
		},
		"draft_saved": {"📝 Draft saved: **{title}**\n\nWant me to post it now, or review it in your [dashboard](/dashboard/employer/jobs)? Tokim mi!"},
	},
	"employer_prefs": {
		"current": {"Your current automation settings:\n\n📤 Auto-post: {auto_post}\n📍 Default location: {location}\n🏷️ Default category: {category}\n🔔 Notifications: {notify}\n\nWhat would you like to change?"},
		"updated": {"✅ Preferences updated! {summary}"},
	},
	"categories": {
		"list": {"Here are all job categories across PNG — from mining to medicine:\n\n{list}\n\nWhich category interests you? Tokim mi na bai mi painim wok bilong yu!"},
	},
	"pricing": {
		"info": {"WantokJobs uses a simple credit-based system:\n\n**Jobseekers** — 100% free! Painim wok, apply, build CV — olgeta fri. 🆓 No hidden fees, mi promis!\n\n**Employers:**\n• Free: 1 active job listing (try us out!)\n• Starter (K500): 5 job posts + 3 AI features\n• Pro (K1,800): 20 job posts + 15 AI features\n• Enterprise (K7,500): 100 posts + unlimited AI\n\nMore details at [Pricing](/pricing). Any questions? Mi stap hia long helpim yu!"},
	},
	"register": {
		"guide": {"Signing up is free and takes 30 seconds — em i isi tru:\n\n1. Go to [Register](/register)\n2. Choose: **Jobseeker** (looking for wok) or **Employer** (hiring)\n3. Enter name, email, password\n4. Solve the quick math puzzle (easy one! 😄)\n5. Done! ✅ Nau yu redi!\n\nOr I can walk you through it right here. Which are you — jobseeker or employer?"},
	},
	"login": {
		"guide": {"To log in, go to [Login](/login) and enter your email and password.\n\nForgot your password? No stress — [reset it here](/forgot-password). Em i kwik tasol. I can also help if you're having trouble!"},
	},
	"contact": {
		"prompt":    {"I'll help you reach our team. What's your message about?"},
		"submitted": {"✅ Your message has been sent to our support team. They'll respond within 24 hours to your email ({email}). Mi bai lukluk tu! 📬"},
	},
	"unknown": {
		"default": {
			"Sori, mi no klia long dispela. But I can definitely help with:\n\n🔍 **Job search** — Find wok by keyword, location, category\n👤 **Profile** — Update your profile or import from LinkedIn\n📄 **CV/Resume** — Build or download your CV\n📨 **Apply** — Apply to jobs or set up auto-apply\n📋 **Post jobs** — Create listings or upload JDs\n💰 **Pricing** — Plans and credits info\n\nWhat would you like to do? Tokim mi tasol!",
			"Hmm, I didn't quite catch that — no worries! Could you rephrase? Or pick from:\n• Search for jobs\n• Update my profile\n• Post a job\n• Check my applications\n• Pricing info\n\nMi stap redi long helpim yu! 😊",
			"Mi no save gut long dispela — but em i orait! Try telling me in different words, or pick something:\n\n🔍 Find jobs\n👤 My profile\n📄 Build CV\n📨 Applications\n📋 Post a job\n\nMi stap hia — tokim mi!",
		},
	},
	"error": {
		"generic": {
			"Something went wrong on my end. 😔 Sori tru! Try again in a moment, or [contact support](/contact).",
			"Oops — something broke! Sori ya. 😔 Give it another try, or [reach out to support](/contact) if it keeps happening.",
		},
		"corrupted": {"Something got tangled up in our conversation, so I've reset where we were. Sori tru! Let's start fresh — what would you like to do? 😊"},
	},
	"document": {
		"upload_prompt": {"Send me your job description document (plain text or markdown for now) and I'll turn it into listings for you. Em i isi — just attach the file! 📎"},
		"parse_error":   {"Hmm, I couldn't read anything useful from that document. Sori! Make sure it's a text file with the job details, or tell me the details in chat and I'll take it from there. 😊"},
		"auto_posted":   {"✅ Done! I found and posted {count} job(s) straight from your document:\n\n{summaries}\n\nThey're live now — applicants will appear in your dashboard. 🎉"},
		"single_job":    {"I pulled this job out of your document:\n\n{summary}\n\nWant me to post it now? Tokim mi!"},
		"found_jobs":    {"I found {count} jobs in your document and saved them as drafts:\n\n{summaries}\n\nReview and publish them from your [dashboard](/dashboard/employer/jobs), or say 'post now' to publish the first one."},
	},
	"linkedin": {
		"fallback": {"I can't pull your LinkedIn profile across just yet — but no worries! I can collect the same info right here in chat, takes 2 minutes max. Want to do that? Em i kwik tasol. 😊"},
	},
	"flow": {
		"cancelled": {
			"No problem, cancelled! Em i orait. What else can I help with? 😊",
			"Cancelled! No worries at all. What would you like to do instead?",
			"Orait, mi stopim. What's next? 😊",
		},
		"skipped": {"Skipped — movin' on! ➡️"},
	},
}

// Get returns a template from the catalog with variables interpolated.
// Unknown categories fall back to a generic error reply.
func Get(category, key string, vars map[string]string) string {
	group, ok := catalog[category]
	if !ok {
		return pick(catalog["error"]["generic"])
	}
	templates, ok := group[key]
	if !ok {
		if templates, ok = group["default"]; !ok {
			return pick(catalog["error"]["generic"])
		}
	}
	text := pick(templates)
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

// Pick returns a random element, for ad-hoc variant lists outside the
// catalog.
func Pick(variants ...string) string {
	return pick(variants)
}

func pick(variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	return variants[rand.Intn(len(variants))]
}
